// Package claudecode drives Claude Code sessions from Go.
//
// A session runs over a Transport, by default the claude CLI as a subprocess
// speaking newline-delimited JSON. Other transports, such as a TCP bridge
// from NewConnTransport or a test double, are passed with WithTransport.
//
// # One-shot queries
//
// Query sends one prompt and yields the conversation as it arrives:
//
//	for msg, err := range claudecode.Query(ctx, "What is 2+2?",
//	    claudecode.WithMaxTurns(1),
//	) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    switch m := msg.(type) {
//	    case *claudecode.AssistantMessage:
//	        fmt.Println(m.Text())
//	    case *claudecode.ResultMessage:
//	        fmt.Printf("done in %dms\n", m.DurationMs)
//	    }
//	}
//
// Breaking out of the loop ends the session and releases the transport.
//
// # Multi-turn sessions
//
// A Client keeps one session open across turns and adds control requests
// such as Interrupt and SetModel:
//
//	err := claudecode.WithClient(ctx, func(c claudecode.Client) error {
//	    if err := c.Query(ctx, "Remember the number 7."); err != nil {
//	        return err
//	    }
//
//	    for _, err := range c.ReceiveResponse(ctx) {
//	        if err != nil {
//	            return err
//	        }
//	    }
//
//	    return c.Query(ctx, "Which number?")
//	})
//
// # In-process tools
//
// WithSDKTools and CreateSdkMcpServer serve MCP tools from this process.
// The peer reaches them over the session's control channel.
//
// # Errors
//
// Failures carry typed errors that work with errors.Is and errors.As:
// *CLINotFoundError, *CLIConnectionError, *ProcessError, *CLIJSONDecodeError
// and *MessageParseError, plus sentinels such as ErrClientNotConnected.
package claudecode
