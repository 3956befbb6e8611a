// Package viz renders temperature sweeps in the terminal.
//
//   - [PlotCurve]: asciigraph plot of mean energy per site against temperature
//   - [Model]: Bubble Tea view that follows chains while they run
//   - [ProgramObserver]: sim.Observer that forwards progress to a Model
//
// # Key Bindings
//
//	Q / Ctrl+C - Quit (the run keeps going until its context is cancelled)
package viz
