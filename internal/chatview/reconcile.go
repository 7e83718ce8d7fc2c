package chatview

// Merge combines the last fetched server history with the optimistic local
// buffer into a single display transcript. Server history comes first in its
// original order; buffer entries follow in their original order, minus any
// entry whose identity tuple already appears in the history.
//
// The merge never drops a server message, never duplicates an identity tuple,
// and is idempotent: merging the output with an empty buffer returns the
// output unchanged. It has no side effects and is safe to call on every
// render.
//
// Known limitation: two genuinely distinct sends with identical role, content
// and timestamp collapse to one entry once the history confirms either of
// them. Identity is content-based because the server assigns no message ids
// inside history.
func Merge(serverHistory, localBuffer []Message) []Message {
	confirmed := make(map[identity]struct{}, len(serverHistory))
	for _, m := range serverHistory {
		confirmed[m.identity()] = struct{}{}
	}

	merged := make([]Message, 0, len(serverHistory)+len(localBuffer))
	merged = append(merged, serverHistory...)
	for _, m := range localBuffer {
		if _, ok := confirmed[m.identity()]; ok {
			continue
		}
		merged = append(merged, m)
	}
	return merged
}
