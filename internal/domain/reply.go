package domain

import (
	"strconv"
	"strings"
)

// Reply is the parsed payload of a valid inbound survey answer.
type Reply struct {
	Joy            int
	Achievement    int
	Meaningfulness int
	InfluenceText  string
}

// RatingMin and RatingMax bound every numeric rating field.
const (
	RatingMin = 1
	RatingMax = 10
)

// RatingFields lists the numeric fields in wire order, which is also the
// tie-break precedence for strongest/weakest dimensions.
var RatingFields = []string{"joy", "achievement", "meaningfulness"}

// ParseReply tokenizes a raw inbound body against the survey grammar:
// three slash-delimited integer ratings followed by free influence text.
// Only the first three slashes are significant; the influence text may
// itself contain slashes and may be empty.
func ParseReply(raw string) (Reply, error) {
	parts := strings.SplitN(raw, "/", 4)
	if len(parts) < 4 {
		return Reply{}, NewMalformedReply(len(parts))
	}

	ratings := make([]int, 3)
	for i := 0; i < 3; i++ {
		field := RatingFields[i]
		token := strings.TrimSpace(parts[i])
		value, err := strconv.Atoi(token)
		if err != nil {
			return Reply{}, NewInvalidRating(field, token)
		}
		if value < RatingMin || value > RatingMax {
			return Reply{}, NewInvalidRating(field, token)
		}
		ratings[i] = value
	}

	return Reply{
		Joy:            ratings[0],
		Achievement:    ratings[1],
		Meaningfulness: ratings[2],
		InfluenceText:  strings.TrimSpace(parts[3]),
	}, nil
}
