package ingest

import "strings"

// tokenCharRatio is the chars-per-token heuristic the whole pipeline uses.
const tokenCharRatio = 4

// Piece is one chunk of document text before embedding.
type Piece struct {
	Text   string
	Order  int
	Tokens int
}

// ChunkText splits text into overlapping char windows sized by the token
// heuristic. Pieces shorter than minTokens are discarded.
func ChunkText(text string, chunkTokens, overlapTokens, minTokens int) []Piece {
	if text == "" {
		return nil
	}

	window := chunkTokens * tokenCharRatio
	if min := minTokens * tokenCharRatio; window < min {
		window = min
	}
	overlap := overlapTokens * tokenCharRatio
	if overlap < 0 {
		overlap = 0
	}

	var pieces []Piece
	order := 0
	n := len(text)
	start := 0
	for start < n {
		end := start + window
		if end > n {
			end = n
		}
		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			tokens := len(piece) / tokenCharRatio
			if tokens < 1 {
				tokens = 1
			}
			if tokens >= minTokens {
				pieces = append(pieces, Piece{Text: piece, Order: order, Tokens: tokens})
				order++
			}
		}
		if end == n {
			break
		}
		if next := end - overlap; next > start {
			start = next
		} else {
			start = end
		}
	}
	return pieces
}
