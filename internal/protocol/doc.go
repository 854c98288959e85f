// Package protocol runs the control channel that shares a transport with the
// conversation stream.
//
// A Controller reads every record from the transport. Records of type
// control_response complete a pending Request, control_request records are
// answered by registered handlers, and control_cancel_request records cancel
// a running handler. Everything else is forwarded, in order, on Messages.
//
// Session layers the handshake and the in-process MCP servers on top:
//
//	controller := protocol.NewController(log, transport)
//	session := protocol.NewSession(log, controller, options)
//	session.RegisterHandlers()
//	controller.Start(ctx)
//
//	if err := session.Initialize(ctx); err != nil {
//		return err
//	}
package protocol
