package postgres

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
	"github.com/kinlog-lab/kinlog/internal/core/storage"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Append(t *testing.T) {
	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		event          *v1.Event
		mockResult     func(mock sqlmock.Sqlmock, event *v1.Event)
		assertions     func(t *testing.T, event *v1.Event, err error)
		expectationsOK bool
	}{
		{
			name: "success sets seq",
			event: &v1.Event{
				ID:           "evt-1",
				Type:         v1.TypeUserRecognizedPersonInPhoto,
				OccurredAt:   now,
				AggregateIDs: []string{"ph-1"},
				Payload:      map[string]interface{}{"personId": "p-1", "photoId": "ph-1"},
			},
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveEvent)).
					WithArgs(
						event.ID,
						event.Type,
						event.OccurredAt,
						sqlmock.AnyArg(),
						sqlmock.AnyArg(),
					).
					WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(42)))
			},
			assertions: func(t *testing.T, event *v1.Event, err error) {
				require.NoError(t, err)
				require.Equal(t, int64(42), event.Seq)
			},
			expectationsOK: true,
		},
		{
			name: "duplicate maps to ErrDuplicate",
			event: &v1.Event{
				ID:         "evt-dup",
				Type:       v1.TypePersonNamed,
				OccurredAt: now,
				Payload:    map[string]interface{}{"personId": "p-1"},
			},
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveEvent)).
					WithArgs(event.ID, event.Type, event.OccurredAt, sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows([]string{"seq"}))
			},
			assertions: func(t *testing.T, event *v1.Event, err error) {
				require.ErrorIs(t, err, storage.ErrDuplicate)
				require.Equal(t, int64(0), event.Seq)
			},
			expectationsOK: true,
		},
		{
			name: "driver error wraps ErrWriteFailure",
			event: &v1.Event{
				ID:         "evt-down",
				Type:       v1.TypePersonNamed,
				OccurredAt: now,
			},
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveEvent)).
					WithArgs(event.ID, event.Type, event.OccurredAt, sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnError(errors.New("connection reset"))
			},
			assertions: func(t *testing.T, event *v1.Event, err error) {
				require.ErrorIs(t, err, storage.ErrWriteFailure)
				require.ErrorContains(t, err, "connection reset")
			},
			expectationsOK: true,
		},
		{
			name: "marshal error short-circuits",
			event: &v1.Event{
				ID:         "evt-bad",
				Type:       v1.TypePersonNamed,
				OccurredAt: now,
				Payload:    map[string]interface{}{"value": math.NaN()},
			},
			assertions: func(t *testing.T, event *v1.Event, err error) {
				require.ErrorIs(t, err, storage.ErrWriteFailure)
				require.ErrorContains(t, err, "failed to marshal payload")
			},
			expectationsOK: true,
		},
		{
			name:  "invalid event is rejected before the database",
			event: &v1.Event{ID: "evt-no-type", OccurredAt: now},
			assertions: func(t *testing.T, event *v1.Event, err error) {
				require.ErrorIs(t, err, storage.ErrWriteFailure)
			},
			expectationsOK: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			if tc.mockResult != nil {
				tc.mockResult(mock, tc.event)
			}

			err := adapter.Append(context.Background(), tc.event)
			tc.assertions(t, tc.event, err)

			if tc.expectationsOK {
				require.NoError(t, mock.ExpectationsWereMet())
			}
		})
	}
}

func TestAdapter_GetHistory(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	occurredAt := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(queryGetHistory)).
		WillReturnRows(sqlmock.NewRows(eventRowColumns()).
			AddRow("evt-1", v1.TypeUserCreatedThread, occurredAt, "{thr-1}", []byte(`{"threadId":"thr-1"}`), int64(1)).
			AddRow("evt-2", v1.TypePersonNamed, occurredAt.Add(time.Minute), "{}", []byte(`{"count":3}`), int64(2)),
		).RowsWillBeClosed()

	events, err := adapter.GetHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "evt-1", events[0].ID)
	require.Equal(t, []string{"thr-1"}, events[0].AggregateIDs)
	require.Equal(t, "thr-1", events[0].String("threadId"))
	require.Equal(t, int64(1), events[0].Seq)
	require.Equal(t, float64(3), events[1].Payload["count"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_GetEventListCompilesNestedFilter(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	filter := payload.Filter{"relationship.type": "parent"}
	query, _, err := buildEventListQuery(v1.RelationshipEventTypes, filter, false)
	require.NoError(t, err)

	occurredAt := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(
			pq.Array(v1.RelationshipEventTypes),
			pq.Array([]string{"relationship", "type"}),
			`"parent"`,
		).
		WillReturnRows(sqlmock.NewRows(eventRowColumns()).
			AddRow("r-1", v1.TypeUserCreatedNewRelationship, occurredAt, "{}",
				[]byte(`{"relationship":{"type":"parent","personIds":["p-1","p-2"]}}`), int64(7)),
		).RowsWillBeClosed()

	events, err := adapter.GetEventList(context.Background(), v1.RelationshipEventTypes, filter)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "r-1", events[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_GetSingleEvent(t *testing.T) {
	filter := payload.Filter{"photoId": "ph-1"}
	types := []string{v1.TypeUserSetPhotoLocation}
	query, _, err := buildEventListQuery(types, filter, true)
	require.NoError(t, err)

	t.Run("returns latest row", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WithArgs(pq.Array(types), pq.Array([]string{"photoId"}), `"ph-1"`).
			WillReturnRows(sqlmock.NewRows(eventRowColumns()).
				AddRow("loc-3", v1.TypeUserSetPhotoLocation, time.Date(2026, 2, 8, 10, 3, 0, 0, time.UTC), "{}",
					[]byte(`{"photoId":"ph-1","name":"third"}`), int64(3)))

		evt, err := adapter.GetSingleEvent(context.Background(), types, filter)
		require.NoError(t, err)
		require.Equal(t, "loc-3", evt.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows returns nil", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WithArgs(pq.Array(types), pq.Array([]string{"photoId"}), `"ph-1"`).
			WillReturnRows(sqlmock.NewRows(eventRowColumns()))

		evt, err := adapter.GetSingleEvent(context.Background(), types, filter)
		require.NoError(t, err)
		require.Nil(t, evt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero types is an argument error", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		_, err := adapter.GetSingleEvent(context.Background(), nil, filter)
		require.ErrorIs(t, err, storage.ErrNoTypes)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_RewritePayload(t *testing.T) {
	patch := map[string]interface{}{"personId": "p-1"}
	query, _, err := buildRewritePayloadQuery("face-1", patch)
	require.NoError(t, err)

	t.Run("updates one row", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(query)).
			WithArgs("face-1", pq.Array([]string{"personId"}), `"p-1"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, adapter.RewritePayload(context.Background(), "face-1", patch))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(query)).
			WithArgs("face-1", pq.Array([]string{"personId"}), `"p-1"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(queryEventExists)).
			WithArgs("face-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := adapter.RewritePayload(context.Background(), "face-1", patch)
		require.ErrorIs(t, err, storage.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing parent object", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		nested := map[string]interface{}{"location.name": "Lisbon"}
		nestedQuery, _, err := buildRewritePayloadQuery("photo-1", nested)
		require.NoError(t, err)

		mock.ExpectExec(regexp.QuoteMeta(nestedQuery)).
			WithArgs("photo-1", pq.Array([]string{"location", "name"}), `"Lisbon"`, pq.Array([]string{"location"})).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(queryEventExists)).
			WithArgs("photo-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err = adapter.RewritePayload(context.Background(), "photo-1", nested)
		require.ErrorIs(t, err, storage.ErrMissingParent)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBuildEventListQuery(t *testing.T) {
	query, args, err := buildEventListQuery(
		[]string{v1.TypePersonClonedForSharing},
		payload.Filter{"clonedFrom.personId": "p-1", "familyId": "fam-2"},
		true,
	)
	require.NoError(t, err)
	require.Equal(t,
		"SELECT "+eventColumns+" FROM events WHERE type = ANY($1)"+
			" AND payload #> $2::text[] = $3::jsonb"+
			" AND payload #> $4::text[] = $5::jsonb"+
			" ORDER BY occurred_at DESC, seq DESC LIMIT 1",
		query)
	require.Len(t, args, 5)
	require.Equal(t, `"p-1"`, args[2])
	require.Equal(t, `"fam-2"`, args[4])

	_, _, err = buildEventListQuery([]string{"X"}, payload.Filter{"a..b": 1}, false)
	require.Error(t, err)
}

func TestBuildRewritePayloadQuery(t *testing.T) {
	query, args, err := buildRewritePayloadQuery("rel-1", map[string]interface{}{
		"relationship.personIds": []string{"p-1", "p-3"},
		"familyId":               "fam-1",
	})
	require.NoError(t, err)
	require.Equal(t,
		"UPDATE events SET payload = jsonb_set(jsonb_set(payload, $2::text[], $3::jsonb, true), $4::text[], $5::jsonb, true)"+
			" WHERE id = $1 AND jsonb_typeof(payload #> $6::text[]) = 'object'",
		query)
	require.Len(t, args, 6)
	require.Equal(t, "rel-1", args[0])
	require.Equal(t, `"fam-1"`, args[2])
	require.Equal(t, `["p-1","p-3"]`, args[4])
	require.Equal(t, pq.Array([]string{"relationship"}), args[5])

	_, _, err = buildRewritePayloadQuery("rel-1", nil)
	require.Error(t, err)
}

func TestLocker_TryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryTryAdvisoryLock)).
		WithArgs("person-clone").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(queryAdvisoryUnlock)).
		WithArgs("person-clone").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(queryTryAdvisoryLock)).
		WithArgs("person-clone").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	locker := NewLocker(db)

	release, ok, err := locker.TryLock(context.Background(), "person-clone")
	require.NoError(t, err)
	require.True(t, ok)
	release()
	release()

	_, ok, err = locker.TryLock(context.Background(), "person-clone")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CloseReturnsDBCloseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbCloseErr := errors.New("db close failed")

	mock.ExpectPrepare(regexp.QuoteMeta(querySaveEvent)).WillBeClosed()
	stmtSave, err := db.Prepare(querySaveEvent)
	require.NoError(t, err)

	mock.ExpectPrepare(regexp.QuoteMeta(queryGetHistory)).WillBeClosed()
	stmtHistory, err := db.Prepare(queryGetHistory)
	require.NoError(t, err)

	mock.ExpectClose().WillReturnError(dbCloseErr)

	adapter := &Adapter{
		db:             db,
		stmtSaveEvent:  stmtSave,
		stmtGetHistory: stmtHistory,
	}

	err = adapter.Close()
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to close database")
	require.ErrorIs(t, err, dbCloseErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{
		db:             db,
		stmtSaveEvent:  mustPrepareStmt(t, db, mock, querySaveEvent),
		stmtGetHistory: mustPrepareStmt(t, db, mock, queryGetHistory),
	}

	return adapter, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}

func eventRowColumns() []string {
	return []string{
		"id",
		"type",
		"occurred_at",
		"aggregate_ids",
		"payload",
		"seq",
	}
}
