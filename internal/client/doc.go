// Package client holds the JSON wire types of the daily word HTTP API and
// the small HTTP helpers used to call it.
//
// # Endpoints
//
//	POST /check   {"guess":"MINT"}
//	              200 {"result":["gray","green","yellow","gray"],"correct":false}
//	              200 {"result":["green","green","green","green"],"correct":true,"answer":"MINT"}
//	              400 {"error":"Not a valid Word!"}
//	              400 {"error":"Guess must be exactly 4 letters"}
//	              503 {"error":"Please try again later"}
//	GET  /health  200 {"status":"ok"}
//	GET  /stats   200 game counters and ledger usage
//
// The server package encodes replies with these same types, so the two
// sides cannot drift apart.
//
// # Errors
//
// Any reply with a status of 300 or above becomes a *StatusError. When the
// body is an ErrorResponse its text is kept in Message so callers can show
// the server's own wording ("Not a valid Word!") to the player:
//
//	resp, err := client.Check(ctx, "http://127.0.0.1:8080", "eels")
//	if se, ok := client.AsStatus(err); ok && se.Rejected() {
//		fmt.Println(se.Message)
//	}
//
// All requests share one http.Client with a 5 second timeout and honour the
// caller's context.
package client
