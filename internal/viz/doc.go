// Package viz draws propagation output in the terminal.
//
// A [Canvas] is a grid of braille cells with 2x4 dots each. A [Track]
// projects the leading position components of propagated states onto a
// coordinate plane and draws them on a canvas. [Model] is a bubbletea model
// that follows a running propagation through the [StepMsg] values a [Feed]
// sends it.
package viz
