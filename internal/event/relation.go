package event

// RelationKind tags the variants of a resolved relation.
type RelationKind int

const (
	// RelationNone means the event carries no resolvable relation.
	RelationNone RelationKind = iota
	// RelationEdit replaces the content of an earlier event.
	RelationEdit
	// RelationThread is a reply within a thread rooted at TargetID.
	RelationThread
	// RelationReply is a direct (rich) reply to TargetID.
	RelationReply
)

// Relation is the resolved relation metadata of a single event.
type Relation struct {
	Kind     RelationKind
	TargetID string

	// Replacement content, populated for RelationEdit only. When the
	// edit lacks a nested m.new_content block the event's own content
	// is used, so an edit always yields a body.
	NewBody          string
	NewFormattedBody string
}

// ParentID returns the parent event id for thread and direct replies,
// and "" for edits and unrelated events.
func (r Relation) ParentID() string {
	if r.Kind == RelationThread || r.Kind == RelationReply {
		return r.TargetID
	}
	return ""
}

// Resolve extracts the relation carried by a message's content
// metadata. It is a pure function of the input; malformed or absent
// metadata resolves to RelationNone.
func Resolve(m Message) Relation {
	rel := m.Content.RelatesTo
	if rel != nil {
		switch rel.RelType {
		case RelTypeReplace:
			if rel.EventID == "" {
				return Relation{Kind: RelationNone}
			}
			body := m.Content.Body
			formatted := m.Content.FormattedBody
			if nc := m.Content.NewContent; nc != nil {
				body = nc.Body
				formatted = nc.FormattedBody
			}
			return Relation{
				Kind:             RelationEdit,
				TargetID:         rel.EventID,
				NewBody:          body,
				NewFormattedBody: formatted,
			}
		case RelTypeThread:
			if rel.EventID == "" {
				return Relation{Kind: RelationNone}
			}
			return Relation{Kind: RelationThread, TargetID: rel.EventID}
		}
		if rel.InReplyTo != nil && rel.InReplyTo.EventID != "" {
			return Relation{Kind: RelationReply, TargetID: rel.InReplyTo.EventID}
		}
	}
	if m.Content.InReplyTo != nil && m.Content.InReplyTo.EventID != "" {
		return Relation{Kind: RelationReply, TargetID: m.Content.InReplyTo.EventID}
	}
	return Relation{Kind: RelationNone}
}
