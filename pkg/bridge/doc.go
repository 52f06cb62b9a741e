// Package bridge connects a foreign tree producer to a reconcile.Host.
//
// A Bridge subscribes to a Producer, gates each delivered root tree by hash
// and hands accepted trees to a root reconcile.Reconciler. A leaf root
// tears the reconciler down and displays the text instead.
//
// Two pull modes exist:
//
//   - ModePush applies whatever the producer pushes.
//   - ModeFrameSync additionally asks a FrameProducer for one frame per
//     scheduler tick. Every delivery schedules the next tick, so at most one
//     request is outstanding.
//
// Usage:
//
//	b, err := bridge.New(conn, host,
//	    bridge.WithMode(bridge.ModeFrameSync),
//	    bridge.WithDisplay(func(root reconcile.Renderable) { ... }),
//	)
//	if err != nil {
//	    return err
//	}
//	return b.Run(ctx)
package bridge
