package clone

import (
	"strings"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
)

// Kind describes where one clonable entity keeps its ids inside a *ClonedForSharing payload.
//
//	{
//	  "personId": "<clone id>",
//	  "familyId": "<clone family>",
//	  "clonedFrom": {"personId": "<original id>", "familyId": "<original family>"}
//	}
type Kind struct {
	Name                string
	EventType           string
	IDField             payload.Path
	OriginalIDPath      payload.Path
	ContextField        payload.Path
	OriginalContextPath payload.Path
}

var (
	Person = newKind("person", v1.TypePersonClonedForSharing, "personId")
	Photo  = newKind("photo", v1.TypePhotoClonedForSharing, "photoId")
	Thread = newKind("thread", v1.TypeThreadClonedForSharing, "threadId")
)

// Kinds lists every clonable entity kind.
var Kinds = []Kind{Person, Photo, Thread}

func newKind(name, eventType, idField string) Kind {
	return Kind{
		Name:                name,
		EventType:           eventType,
		IDField:             payload.MustPath(idField),
		OriginalIDPath:      payload.MustPath("clonedFrom." + idField),
		ContextField:        payload.MustPath("familyId"),
		OriginalContextPath: payload.MustPath("clonedFrom.familyId"),
	}
}

// KindByName looks a kind up by its lower-case name ("person", "photo", "thread").
func KindByName(name string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Name == strings.ToLower(strings.TrimSpace(name)) {
			return k, true
		}
	}
	return Kind{}, false
}

// CloneID returns the id of the clone created by evt.
func (k Kind) CloneID(evt *v1.Event) string {
	return payload.GetString(evt.Payload, k.IDField)
}

// OriginalID returns the id the clone was made from.
func (k Kind) OriginalID(evt *v1.Event) string {
	return payload.GetString(evt.Payload, k.OriginalIDPath)
}

// CloneFamily returns the family the clone was shared into.
func (k Kind) CloneFamily(evt *v1.Event) string {
	return payload.GetString(evt.Payload, k.ContextField)
}

// OriginalFamily returns the family that owned the original.
func (k Kind) OriginalFamily(evt *v1.Event) string {
	return payload.GetString(evt.Payload, k.OriginalContextPath)
}

func (k Kind) String() string {
	return k.Name
}
