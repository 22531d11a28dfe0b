// Package unattended drives interactive command-line installers without a
// human at the keyboard.
//
// The installer runs inside a detached tmux session whose output is mirrored
// to an append-only transcript file. An [Engine] tails the transcript, looks
// for known prompt text, and types the configured response followed by Enter.
// The session is never torn down by the engine, so an operator can attach
// later and see exactly what happened.
//
// # Quick Start
//
//	sess, err := unattended.NewSession(ctx, "nexus", "/tmp/nexus_screen.log")
//	if err != nil {
//		return err
//	}
//	if err := sess.Create(ctx); err != nil {
//		return err
//	}
//	if err := sess.EnableLogging(ctx); err != nil {
//		return err
//	}
//	tr, err := unattended.OpenTranscript(sess.LogPath())
//	if err != nil {
//		return err
//	}
//	defer tr.Close()
//
//	engine, err := unattended.NewEngine(unattended.Table{
//		{Match: "Do you agree to the terms", Response: "Y"},
//		{Match: "Please enter your node ID:", Response: nodeID},
//	}, sess)
//	if err != nil {
//		return err
//	}
//	if err := sess.Send(ctx, "curl https://cli.nexus.xyz/ | sh"); err != nil {
//		return err
//	}
//	return engine.Watch(ctx, tr)
//
// Open the transcript before starting the installer. [OpenTranscript]
// positions its cursor at the current end of the file, so anything written
// earlier is never matched. [Engine.Run] waits for the file, opens it, and
// watches it in one call, for a session someone else started.
//
// # Matching
//
// Each read is stripped of terminal escape sequences and carriage returns are
// treated as line ends. The engine keeps a single buffer of unprocessed text
// and repeatedly takes whichever comes first: a newline, which completes a
// line, or the earliest occurrence of a live rule's match, which triggers its
// response. Matched text is discarded up to the end of the match, so one
// occurrence is answered once. Rules that match at the same position are
// ordered by their place in the [Table]. A prompt split across reads is found
// once the rest of it arrives.
//
// # Policies
//
// [ConsumeOnce] answers each rule at most once and completes when every rule
// without Repeat has been answered. Rules marked Repeat are answered every
// time and never hold up completion. [RepeatForever] answers every occurrence
// of every rule and only stops when its context is cancelled.
//
// [WithTimeout] bounds a run. When it expires first the engine returns a
// [*TimeoutError] listing the prompts still pending, which matches
// [ErrPromptTimeout] with errors.Is.
//
// # Requirements
//
//   - tmux 3.0+
//   - Linux or macOS
//
// tmux is resolved in this order:
//
//   - [WithTmuxPath]
//   - UNATTENDED_TMUX
//   - PATH lookup for tmux
package unattended
