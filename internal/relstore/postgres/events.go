package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/relstore"
)

type eventStore struct {
	s *Store
}

const eventCols = "events.id, events.type, events.show_id"
const eventShowCols = eventCols + ", shows.id, shows.title, shows.description"

func (e *eventStore) Count(ctx context.Context, where *relstore.EventWhere) (int64, error) {
	args := &relstore.ArgList{Dialect: relstore.DialectPostgres}
	cond := relstore.EventWhereSQL(where, args)

	var count int64
	err := e.s.db.QueryRow(ctx, "SELECT COUNT(*) FROM events WHERE "+cond, args.Args...).Scan(&count)
	if err != nil {
		return 0, storeErr(err, "count events")
	}
	return count, nil
}

func (e *eventStore) FindMany(ctx context.Context, q relstore.EventQuery) ([]relstore.EventRow, error) {
	args := &relstore.ArgList{Dialect: relstore.DialectPostgres}
	cond := relstore.EventWhereSQL(q.Where, args)
	order, err := relstore.EventOrderSQL(q.Order)
	if err != nil {
		return nil, err
	}
	page := relstore.PageSQL(q.Skip, q.Take, relstore.DialectPostgres)

	var query string
	if q.IncludeShow {
		query = "SELECT " + eventShowCols + " FROM events JOIN shows ON shows.id = events.show_id WHERE " + cond + order + page
	} else {
		query = "SELECT " + eventCols + " FROM events WHERE " + cond + order + page
	}

	rows, err := e.s.db.Query(ctx, query, args.Args...)
	if err != nil {
		return nil, storeErr(err, "find events")
	}
	defer rows.Close()

	out := []relstore.EventRow{}
	for rows.Next() {
		var row relstore.EventRow
		if q.IncludeShow {
			var show relstore.ShowRow
			if err := rows.Scan(&row.ID, &row.Type, &row.ShowID, &show.ID, &show.Title, &show.Description); err != nil {
				return nil, storeErr(err, "scan event")
			}
			row.Show = &show
		} else {
			if err := rows.Scan(&row.ID, &row.Type, &row.ShowID); err != nil {
				return nil, storeErr(err, "scan event")
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "find events")
	}
	return out, nil
}

func (e *eventStore) FindUnique(ctx context.Context, id string, includeShow bool) (*relstore.EventRow, error) {
	var row relstore.EventRow
	var err error
	if includeShow {
		var show relstore.ShowRow
		err = e.s.db.QueryRow(ctx,
			"SELECT "+eventShowCols+" FROM events JOIN shows ON shows.id = events.show_id WHERE events.id = $1", id).
			Scan(&row.ID, &row.Type, &row.ShowID, &show.ID, &show.Title, &show.Description)
		row.Show = &show
	} else {
		err = e.s.db.QueryRow(ctx,
			"SELECT "+eventCols+" FROM events WHERE events.id = $1", id).
			Scan(&row.ID, &row.Type, &row.ShowID)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("event %s not found", id)
	}
	if err != nil {
		return nil, storeErr(err, "get event %s", id)
	}
	return &row, nil
}

func (e *eventStore) Create(ctx context.Context, row relstore.EventRow) (*relstore.EventRow, error) {
	var out relstore.EventRow
	err := e.s.db.QueryRow(ctx,
		"INSERT INTO events (id, type, show_id) VALUES ($1, $2, $3) RETURNING id, type, show_id",
		row.ID, row.Type, row.ShowID).
		Scan(&out.ID, &out.Type, &out.ShowID)
	if err != nil {
		return nil, storeErr(err, "create event %s", row.ID)
	}
	return &out, nil
}

func (e *eventStore) CreateMany(ctx context.Context, rows []relstore.EventRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	args := &relstore.ArgList{Dialect: relstore.DialectPostgres}
	values := ""
	for i, row := range rows {
		if i > 0 {
			values += ", "
		}
		values += "(" + args.Add(row.ID) + ", " + args.Add(string(row.Type)) + ", " + args.Add(row.ShowID) + ")"
	}
	tag, err := e.s.db.Exec(ctx, "INSERT INTO events (id, type, show_id) VALUES "+values, args.Args...)
	if err != nil {
		return 0, storeErr(err, "create events")
	}
	return tag.RowsAffected(), nil
}

func (e *eventStore) Update(ctx context.Context, id string, upd relstore.EventUpdate) (*relstore.EventRow, error) {
	args := &relstore.ArgList{Dialect: relstore.DialectPostgres}
	sets := ""
	if upd.ID != nil {
		sets += "id = " + args.Add(*upd.ID)
	}
	if upd.Type != nil {
		if sets != "" {
			sets += ", "
		}
		sets += "type = " + args.Add(string(*upd.Type))
	}
	if upd.ShowID != nil {
		if sets != "" {
			sets += ", "
		}
		sets += "show_id = " + args.Add(*upd.ShowID)
	}
	if sets == "" {
		return e.FindUnique(ctx, id, false)
	}

	var out relstore.EventRow
	err := e.s.db.QueryRow(ctx,
		"UPDATE events SET "+sets+" WHERE id = "+args.Add(id)+" RETURNING id, type, show_id",
		args.Args...).
		Scan(&out.ID, &out.Type, &out.ShowID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("event %s not found", id)
	}
	if err != nil {
		return nil, storeErr(err, "update event %s", id)
	}
	return &out, nil
}

func (e *eventStore) Delete(ctx context.Context, id string) (*relstore.EventRow, error) {
	var out relstore.EventRow
	err := e.s.db.QueryRow(ctx,
		"DELETE FROM events WHERE id = $1 RETURNING id, type, show_id", id).
		Scan(&out.ID, &out.Type, &out.ShowID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("event %s not found", id)
	}
	if err != nil {
		return nil, storeErr(err, "delete event %s", id)
	}
	return &out, nil
}

func (e *eventStore) DeleteMany(ctx context.Context, where *relstore.EventWhere) (int64, error) {
	args := &relstore.ArgList{Dialect: relstore.DialectPostgres}
	cond := relstore.EventWhereSQL(where, args)

	tag, err := e.s.db.Exec(ctx, "DELETE FROM events WHERE "+cond, args.Args...)
	if err != nil {
		return 0, storeErr(err, "delete events")
	}
	return tag.RowsAffected(), nil
}
