package backfill

import (
	"fmt"
	"strings"
	"time"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/clone"
)

// Job names, as recorded in marker events.
const (
	PersonCloneName = "person-clone"
	PhotoCloneName  = "photo-clone"
	ThreadCloneName = "thread-clone"
)

// Names lists every job in the order RunAll should apply them. Threads go last so that the
// photo ids embedded in thread content resolve against the same canonical ids.
var Names = []string{PersonCloneName, PhotoCloneName, ThreadCloneName}

// jobBase carries what every clone backfill reads from.
type jobBase struct {
	store    clone.Querier
	resolver *clone.Resolver
	nowFn    func() time.Time
}

func newJobBase(store clone.Querier) jobBase {
	return jobBase{
		store:    store,
		resolver: clone.NewResolver(store),
		nowFn:    time.Now,
	}
}

func (b jobBase) newEvent(eventType string, doc map[string]interface{}) *v1.Event {
	return v1.NewEvent(eventType, doc, b.nowFn())
}

// NewJobs builds the named jobs over store. No names means all of them.
func NewJobs(store clone.Querier, names ...string) ([]Job, error) {
	if len(names) == 0 {
		names = Names
	}

	jobs := make([]Job, 0, len(names))
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case PersonCloneName:
			jobs = append(jobs, NewPersonCloneJob(store))
		case PhotoCloneName:
			jobs = append(jobs, NewPhotoCloneJob(store))
		case ThreadCloneName:
			jobs = append(jobs, NewThreadCloneJob(store))
		default:
			return nil, fmt.Errorf("unknown backfill job %q (known: %s)", name, strings.Join(Names, ", "))
		}
	}
	return jobs, nil
}

// orderedSet keeps first-seen order.
type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]bool{}}
}

func (s *orderedSet) add(v string) bool {
	if v == "" || s.seen[v] {
		return false
	}
	s.seen[v] = true
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet) has(v string) bool {
	return s.seen[v]
}
