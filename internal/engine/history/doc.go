// Package history provides undo/redo for a drawing surface by keeping a
// linear log of serialized canvas snapshots.
//
// The history system has three parts:
//
// # Snapshot Log
//
// A Log is an ordered list of Snapshots with a cursor pointing at the
// snapshot currently shown on the surface. Pushing after an undo drops the
// redo tail before appending, so abandoned branches are never reachable.
//
// # Manager
//
// The Manager coordinates a Surface with the Log:
//
//	m := history.New(surface,
//	    history.WithKeys(canvas.DefaultKeys()),
//	    history.WithOnSave(func(r history.SaveResult) { ... }),
//	)
//
//	m.Save(false) // record a checkpoint
//	m.Undo()      // reload the previous snapshot
//	m.Redo()      // reload the next snapshot
//
// Undo and Redo clear the surface and load a snapshot. Loading usually makes
// the surface emit change events, and hosts typically answer those by calling
// Save. While a load is in flight the Manager is in the loading state and
// Save does not touch the log; the state returns to idle only when the
// surface reports load completion, even if the load failed.
//
// # Thumbnails
//
// Every Save renders a small preview of the workspace region. Export runs
// with the viewport transform reset to identity and restores it afterwards.
// Failures are logged and the thumbnail is left empty; Save still succeeds.
//
// # Batches
//
// Several edits can be recorded as one undo step:
//
//	m.Batch("Align objects", func() error {
//	    // ... edits that each trigger Save ...
//	    return nil
//	})
package history
