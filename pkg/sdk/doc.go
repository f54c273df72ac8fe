// Package katalog embeds the Auctionet cataloging assistant in a Go program.
//
// The client runs the same rule engine, query sessions, market analysis and
// AI enhancement as the katalog HTTP service, without the HTTP layer. Sessions
// are stored in memory by default; use WithValkey or WithRedis to share them.
//
//	client, _ := katalog.New(ctx, katalog.WithCompleter(myLLM))
//	defer client.Close()
//
//	terms := client.Terms(katalog.Item{Title: "ROLEX, armbandsur, Oyster Perpetual"})
//	sess, _ := client.Sessions().Start(ctx, item)
//	snap, _ := client.Sessions().Select(ctx, sess.ID, []string{"Rolex", "armbandsur"})
//	data, _ := client.Market().Analyze(ctx, snap.Query)
//
// Without a completer the client uses the rule engine alone and AI
// enhancement returns ErrMissingAPIKey.
package katalog
