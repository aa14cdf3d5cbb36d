// ABOUTME: Responder contract the conversation engine depends on
// ABOUTME: Every failure mode collapses into the single ErrResponse sentinel

package assistant

import (
	"context"
	"errors"

	"github.com/krishimitra/krishimitra/internal/chat"
)

// ErrResponse is returned for any assistant failure: transport errors, bad
// status codes, malformed bodies, timeouts. The engine treats all of them
// uniformly.
var ErrResponse = errors.New("assistant request failed")

// Responder produces a single reply for a conversation transcript. The local
// user identity distinguishes the farmer from the assistant when the
// transcript is formatted for the model. Implementations hold no state across
// calls.
type Responder interface {
	Complete(ctx context.Context, history []chat.Message, localUser chat.User) (string, error)
}
