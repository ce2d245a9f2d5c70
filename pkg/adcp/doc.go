// Package adcp provides a minimal client for switching Sony projectors
// over ADCP (Advanced Display Control Protocol) on a raw TCP socket.
//
// # Basic Usage
//
//	link, err := adcp.NewLink(adcp.DeviceConfig{Host: "192.168.1.60"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = link.TurnOn(ctx, adcp.CommandParams{PictureMemory: "2.35_1"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	on, known := link.IsOn()
//
// Every TurnOn/TurnOff call opens a fresh connection, authenticates, sends
// one command, waits for the acknowledgement and closes the connection.
// No connection is held between calls. IsOn never touches the network; it
// reports the result of the last successful exchange.
//
// # Configuration
//
// Timeouts and logging are configured using functional options:
//
//	link, err := adcp.NewLink(cfg,
//	    adcp.WithConnectTimeout(3*time.Second),
//	    adcp.WithReadTimeout(2*time.Second),
//	    adcp.WithLogger(slog.Default()),
//	)
//
// # Protocol
//
// The projector listens on TCP port 53595 by default and does not support
// TLS. The exchange is line oriented ASCII:
//
//	server: Password:
//	client: <password>\n
//	server: OK
//	client: pic_pos_sel 1.85_1\n
//	server: OK
package adcp
