package as2client

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// messageIDTokenPattern matches the four token shapes the format string
// may contain:
//
//	$date.<pattern>$          — current time formatted per <pattern>
//	$rand.<bound>$            — a random non-negative integer less than <bound>
//	$msg.sender.as2_id$       — the configured sender AS2 id
//	$msg.receiver.as2_id$     — the configured receiver AS2 id
var messageIDTokenPattern = regexp.MustCompile(`\$(date\.[^$]+|rand\.\d+|msg\.sender\.as2_id|msg\.receiver\.as2_id)\$`)

// formatMessageID evaluates format against senderAS2ID/receiverAS2ID and
// the current time, substituting every recognized token.
func formatMessageID(format, senderAS2ID, receiverAS2ID string) (string, error) {
	var evalErr error

	result := messageIDTokenPattern.ReplaceAllStringFunc(format, func(token string) string {
		inner := strings.TrimSuffix(strings.TrimPrefix(token, "$"), "$")

		switch {
		case inner == "msg.sender.as2_id":
			return senderAS2ID
		case inner == "msg.receiver.as2_id":
			return receiverAS2ID
		case strings.HasPrefix(inner, "date."):
			return formatDateToken(strings.TrimPrefix(inner, "date."))
		case strings.HasPrefix(inner, "rand."):
			value, err := randomBounded(strings.TrimPrefix(inner, "rand."))
			if err != nil {
				evalErr = err
				return token
			}
			return value
		default:
			return token
		}
	})

	if evalErr != nil {
		return "", evalErr
	}
	return result, nil
}

// javaToGoDateTokens maps the Java SimpleDateFormat letters this format
// string uses to Go's reference-time layout.
var javaToGoDateTokens = strings.NewReplacer(
	"yyyy", "2006",
	"MM", "01",
	"dd", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
	"Z", "-0700",
)

func formatDateToken(pattern string) string {
	layout := javaToGoDateTokens.Replace(pattern)
	return time.Now().UTC().Format(layout)
}

func randomBounded(boundSpec string) (string, error) {
	n := 0
	if _, err := fmt.Sscanf(boundSpec, "%d", &n); err != nil || n <= 0 {
		return "", fmt.Errorf("as2client: invalid $rand.%s$ token", boundSpec)
	}

	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return "", fmt.Errorf("as2client: generate random value: %w", err)
	}
	return v.String(), nil
}
