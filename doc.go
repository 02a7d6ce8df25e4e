/*
Package gamebook maps the transition graph of a branching narrative from a log of
recorded choices, and finds the shortest route from start to end that visits every
required node.

# Concept

A player records each step of a playthrough as one notation line:

	12,40,88*         from 12 the options were 40 and 88; 88 was taken and is secret
	88,102t | ending  from 88, 102 was taken and is an end
	40x               40 is a dead end
	7,9+,15           9 is required to win

The last destination of a line is the chosen transition, the others are rejected
alternatives. Lines are appended to a session; the session is classified into node
roles (Start, End, Dead, Required, Unexplored) and edge display intents, and can be
searched for the shortest simple path covering every required node.

# Usage

	store := memory.NewStore()
	eng := gamebook.New(store, gamebook.WithMaxSteps(100_000))

	ctx := context.Background()
	if _, err := eng.AddLines(ctx, "run-1", "1,2+,3\n2,3\n3,4t", ""); err != nil {
		log.Fatal(err)
	}

	res, err := eng.ShortestRequiredPath(ctx, "run-1", "", "")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Path)

Sessions persist through any ports.SessionStore (memory, file, SQLite, Badger,
Redis). The HTTP and MCP adapters, and the gamebook CLI, drive the same Engine.
*/
package gamebook
