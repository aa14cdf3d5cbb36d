// Package conversation is the conversation and messaging engine.
//
// # Overview
//
// The package sits between the HTTP handlers and the assistant responder,
// providing the single source of truth for conversations plus the send
// pipeline that drives the assistant round trip.
//
// # Store
//
// The Store owns the conversation map and the advisory active selection.
// It is created once per session and mutated only through its exported
// operations:
//
//   - List / Get / SetActive / Active: read-side queries
//   - AppendMessage(id, msg): append-only transcript growth
//   - Add(conv): register a new conversation at the front of the listing
//   - RetargetLocale(strings): apply a live locale change to the
//     assistant conversation (rename + welcome rewrite only)
//
// Readers always receive deep copies, so a snapshot taken before an async
// completion lands stays stable.
//
// # Service
//
// The Service is the message dispatcher and group composer:
//
//	svc := conversation.NewService(store, responder, events, logger)
//
//   - Send(ctx, convID, text, from): optimistic synchronous append of the
//     user's message, then, for assistant-backed conversations, an async
//     responder call whose outcome (reply or locale error text) is
//     reconciled back into the store as an assistant-authored message.
//   - CreateGroup(name, members, creator): validated group creation; the
//     new group is registered and becomes the active conversation.
//   - Composing(convID): whether an assistant reply is in flight.
//
// Validation failures (empty text, unknown conversation, empty group name
// or member list) surface synchronously as ErrValidation and mutate
// nothing. Responder failures never reach the caller of Send; they become
// a visible assistant error message, so a sent message in an
// assistant-backed thread always gets a terminal outcome.
//
// # Event Broadcasting
//
// The Broadcaster fans persisted engine events out to subscribers keyed by
// conversation id, which backs the SSE stream:
//
//	ch, subID := events.Subscribe(ctx, convID)
//
// Events: message (a message was appended) and composing (the per-
// conversation composing flag changed).
package conversation
