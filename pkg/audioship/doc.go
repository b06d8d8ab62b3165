// Package audioship provides an embeddable audio ingestion client.
//
// Audioship captures the audio an application plays (a browser tab in a
// meeting, for instance) together with the local microphone, mixes the two
// streams into one mono 48 kHz float32 stream and ships it to the ingestion
// service over a WebSocket in base64 f32le chunks, one every three seconds.
//
// # Basic Usage
//
//	cfg := audioship.Config{
//	    UserID:    "7dcb16b8-c05c-4ec4-9524-0003e11acd2a",
//	    TargetApp: "com.google.Chrome",
//	}
//
//	a, err := audioship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	select {
//	case <-ctx.Done():
//	case err := <-a.Err():
//	    log.Printf("session failed: %v", err)
//	}
//	_ = a.Stop()
//
// # Sessions
//
// A session moves through [StateIdle], [StateOpening], [StateStreaming] and
// [StateClosing]. Start sends init and returns; capture begins once the
// service acknowledges with a raw_data_id. Stop drops audio not yet flushed,
// sends close_connection and resets the chunk index, so every session
// starts at chunk 0.
//
// # Modes
//
// Mode "mix" averages application and microphone blocks of equal length.
// "tab" ships application audio only and "mic" microphone audio only.
//
// # Dependency Injection
//
// The WebSocket dialer and both capturers can be replaced:
//
//	a, err := audioship.New(cfg,
//	    audioship.WithDialer(myDialer),
//	    audioship.WithAppCapturer(myCapturer),
//	    audioship.WithLogger(logger),
//	)
//
// # Plugins
//
// Plugins registered with [WithPlugin] are initialized by Start in
// registration order and shut down by Stop in reverse order.
package audioship
