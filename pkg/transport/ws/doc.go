// Package ws is a websocket Producer for the bridge.
//
// A Conn reads trees from the producer and writes events and frame requests
// back. Two encodings are supported:
//
//   - EncodingJSON: text messages. Inbound messages hold one JSON tree, or
//     null for "not yet". Outbound messages are {"type":"event","context":..,
//     "value":..} and {"type":"frame"}.
//   - EncodingBinary: binary messages, each one protocol.Frame.
//
// Conn implements bridge.FrameProducer and bridge.Finite:
//
//	conn, err := ws.Dial(ctx, "ws://localhost:8080/tree", ws.WithEncoding(ws.EncodingBinary))
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	b, err := bridge.New(conn, host, bridge.WithMode(bridge.ModeFrameSync))
package ws
