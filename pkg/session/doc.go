// Package session implements the interactive export session.
//
// A [Session] owns the user's current choices (view kind, node font and font
// size) and keeps a DOT text and a rendered image in step with them. It is a
// small state machine:
//
//	Idle ──change──▶ Dirty ──debounce elapsed──▶ Rendering ──done──▶ Ready
//	                   ▲                              │                 │
//	                   └────────────change────────────┴─────────────────┘
//
// Every change restarts a debounce timer, so a burst of edits produces a
// single refresh using the values current when the timer fires. A change that
// lands while a render is in flight is never dropped: if its timer fires
// before the render finishes, exactly one more refresh runs right after.
//
// Each published [Snapshot] pairs a text with the image rendered from that
// exact text. A snapshot may lag the latest options, but it is never a mix of
// two renders.
//
// Rendering failures do not surface as errors. The snapshot simply carries no
// image and records why in Snapshot.Err, and the UI shows a blank preview.
package session
