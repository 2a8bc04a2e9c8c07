/*
Package crio persists a homogeneous collection of records to a single
file and loads them back later. Any type that round-trips through the
configured record serialization (JSON by default) can be stored. Each
record is framed with a crc32 checksum; the file carries a format
version that is checked on every load, and cross-version reads fail
rather than guess.

It is meant for small amounts of state an application wants to survive
restarts, not for large datasets: Load reads the whole file into memory.
For anything bigger reach for an embedded database instead.

	type Message struct {
		ID   int    `json:"id"`
		Text string `json:"text"`
	}

	client, err := crio.New[Message]("messages.crio", false)
	if err != nil {
		log.Fatal(err)
	}
	err = client.WriteMany([]Message{
		{ID: 1, Text: "hello there"},
		{ID: 2, Text: "general kenobi"},
	})
	// ...
	msgs, err := client.Load()
	if err != nil {
		log.Fatal(err)
	}
	if msgs == nil {
		// nothing persisted yet
	}

A Client holds no lock: concurrent writers against the same path can
interleave and corrupt the file. Coordinating access is the caller's
responsibility.
*/
package crio
