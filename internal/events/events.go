package events

import (
	"context"

	"github.com/google/uuid"
)

// Dispatcher consumes domain events emitted by the connection, engagement and
// progression services. Emit never blocks the emitting mutation on delivery
// errors; implementations log and move on.
type Dispatcher interface {
	Emit(ctx context.Context, ev Event)
}

// Event is a closed set of variants; the marker method keeps the set closed
// so dispatch can type-switch exhaustively.
type Event interface {
	Actor() uuid.UUID
	Recipient() uuid.UUID
	isEvent()
}

type base struct {
	ActorID     uuid.UUID
	RecipientID uuid.UUID
}

func (b base) Actor() uuid.UUID     { return b.ActorID }
func (b base) Recipient() uuid.UUID { return b.RecipientID }

type ConnectionRequested struct {
	base
	ConnectionID uuid.UUID
}

type ConnectionAccepted struct {
	base
	ConnectionID uuid.UUID
}

type ReactionRecorded struct {
	base
	ContentID uuid.UUID
}

type CommentAdded struct {
	base
	ContentID uuid.UUID
	Body      string
}

type MessageSent struct {
	base
	MessageID uuid.UUID
	Body      string
}

type QuestCompleted struct {
	base
	QuestID uuid.UUID
	Title   string
}

type ModuleCompleted struct {
	base
	ModuleID uuid.UUID
	Title    string
}

type AchievementUnlocked struct {
	base
	AchievementID uuid.UUID
	Title         string
}

type LevelUp struct {
	base
	Level int
}

func (ConnectionRequested) isEvent() {}
func (ConnectionAccepted) isEvent()  {}
func (ReactionRecorded) isEvent()    {}
func (CommentAdded) isEvent()        {}
func (MessageSent) isEvent()         {}
func (QuestCompleted) isEvent()      {}
func (ModuleCompleted) isEvent()     {}
func (AchievementUnlocked) isEvent() {}
func (LevelUp) isEvent()             {}

func NewConnectionRequested(actor, recipient, connectionID uuid.UUID) ConnectionRequested {
	return ConnectionRequested{base: base{ActorID: actor, RecipientID: recipient}, ConnectionID: connectionID}
}

func NewConnectionAccepted(actor, recipient, connectionID uuid.UUID) ConnectionAccepted {
	return ConnectionAccepted{base: base{ActorID: actor, RecipientID: recipient}, ConnectionID: connectionID}
}

func NewReactionRecorded(actor, recipient, contentID uuid.UUID) ReactionRecorded {
	return ReactionRecorded{base: base{ActorID: actor, RecipientID: recipient}, ContentID: contentID}
}

func NewCommentAdded(actor, recipient, contentID uuid.UUID, body string) CommentAdded {
	return CommentAdded{base: base{ActorID: actor, RecipientID: recipient}, ContentID: contentID, Body: body}
}

func NewMessageSent(actor, recipient, messageID uuid.UUID, body string) MessageSent {
	return MessageSent{base: base{ActorID: actor, RecipientID: recipient}, MessageID: messageID, Body: body}
}

// Progression events are system-originated: the actor is uuid.Nil so the
// actor != recipient invariant holds for the resulting notification.

func NewQuestCompleted(userID, questID uuid.UUID, title string) QuestCompleted {
	return QuestCompleted{base: base{ActorID: uuid.Nil, RecipientID: userID}, QuestID: questID, Title: title}
}

func NewModuleCompleted(userID, moduleID uuid.UUID, title string) ModuleCompleted {
	return ModuleCompleted{base: base{ActorID: uuid.Nil, RecipientID: userID}, ModuleID: moduleID, Title: title}
}

func NewAchievementUnlocked(userID, achievementID uuid.UUID, title string) AchievementUnlocked {
	return AchievementUnlocked{base: base{ActorID: uuid.Nil, RecipientID: userID}, AchievementID: achievementID, Title: title}
}

func NewLevelUp(userID uuid.UUID, level int) LevelUp {
	return LevelUp{base: base{ActorID: uuid.Nil, RecipientID: userID}, Level: level}
}
