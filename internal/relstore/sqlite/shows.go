package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/relstore"
)

type showStore struct {
	s *Store
}

const showCols = "shows.id, shows.title, shows.description"

func (st *showStore) Count(ctx context.Context, where *relstore.ShowWhere) (int64, error) {
	args := &relstore.ArgList{Dialect: relstore.DialectSQLite}
	cond := relstore.ShowWhereSQL(where, args)

	var count int64
	err := st.s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM shows WHERE "+cond, args.Args...).Scan(&count)
	if err != nil {
		return 0, storeErr(err, "count shows")
	}
	return count, nil
}

func (st *showStore) attachEvents(ctx context.Context, rows []relstore.ShowRow) error {
	if len(rows) == 0 {
		return nil
	}
	index := make(map[string]*relstore.ShowRow, len(rows))
	args := &relstore.ArgList{Dialect: relstore.DialectSQLite}
	placeholder := ""
	for i := range rows {
		rows[i].Events = []relstore.EventRow{}
		index[rows[i].ID] = &rows[i]
		if i > 0 {
			placeholder += ", "
		}
		placeholder += args.Add(rows[i].ID)
	}

	evRows, err := st.s.q.QueryContext(ctx,
		"SELECT "+eventCols+" FROM events WHERE events.show_id IN ("+placeholder+") ORDER BY events.id",
		args.Args...)
	if err != nil {
		return storeErr(err, "load show events")
	}
	defer evRows.Close()

	for evRows.Next() {
		var ev relstore.EventRow
		if err := evRows.Scan(&ev.ID, &ev.Type, &ev.ShowID); err != nil {
			return storeErr(err, "scan event")
		}
		if show, ok := index[ev.ShowID]; ok {
			show.Events = append(show.Events, ev)
		}
	}
	return evRows.Err()
}

func (st *showStore) FindMany(ctx context.Context, q relstore.ShowQuery) ([]relstore.ShowRow, error) {
	args := &relstore.ArgList{Dialect: relstore.DialectSQLite}
	cond := relstore.ShowWhereSQL(q.Where, args)
	order, err := relstore.ShowOrderSQL(q.Order)
	if err != nil {
		return nil, err
	}
	page := relstore.PageSQL(q.Skip, q.Take, relstore.DialectSQLite)

	rows, err := st.s.q.QueryContext(ctx, "SELECT "+showCols+" FROM shows WHERE "+cond+order+page, args.Args...)
	if err != nil {
		return nil, storeErr(err, "find shows")
	}
	defer rows.Close()

	out := []relstore.ShowRow{}
	for rows.Next() {
		var row relstore.ShowRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Description); err != nil {
			return nil, storeErr(err, "scan show")
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "find shows")
	}

	if q.IncludeEvents {
		if err := st.attachEvents(ctx, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (st *showStore) FindUnique(ctx context.Context, sel relstore.ShowSelector, includeEvents bool) (*relstore.ShowRow, error) {
	var row relstore.ShowRow
	var err error
	switch {
	case sel.ID != nil:
		err = st.s.q.QueryRowContext(ctx, "SELECT "+showCols+" FROM shows WHERE shows.id = ?", *sel.ID).
			Scan(&row.ID, &row.Title, &row.Description)
	case sel.Title != nil:
		err = st.s.q.QueryRowContext(ctx, "SELECT "+showCols+" FROM shows WHERE shows.title = ?", *sel.Title).
			Scan(&row.ID, &row.Title, &row.Description)
	default:
		return nil, apperr.Validation("show selector needs an id or a title")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("show not found")
	}
	if err != nil {
		return nil, storeErr(err, "get show")
	}

	if includeEvents {
		rows := []relstore.ShowRow{row}
		if err := st.attachEvents(ctx, rows); err != nil {
			return nil, err
		}
		row = rows[0]
	}
	return &row, nil
}

func (st *showStore) Create(ctx context.Context, row relstore.ShowRow) (*relstore.ShowRow, error) {
	_, err := st.s.q.ExecContext(ctx,
		"INSERT INTO shows (id, title, description) VALUES (?, ?, ?)",
		row.ID, row.Title, row.Description)
	if err != nil {
		return nil, storeErr(err, "create show %q", row.Title)
	}
	return st.FindUnique(ctx, relstore.ShowSelector{ID: &row.ID}, false)
}

func (st *showStore) Update(ctx context.Context, id string, upd relstore.ShowUpdate) (*relstore.ShowRow, error) {
	args := &relstore.ArgList{Dialect: relstore.DialectSQLite}
	sets := ""
	if upd.ID != nil {
		sets += "id = " + args.Add(*upd.ID)
	}
	if upd.Title != nil {
		if sets != "" {
			sets += ", "
		}
		sets += "title = " + args.Add(*upd.Title)
	}
	if upd.Description.Set {
		if sets != "" {
			sets += ", "
		}
		if upd.Description.Value == nil {
			sets += "description = NULL"
		} else {
			sets += "description = " + args.Add(*upd.Description.Value)
		}
	}
	if sets == "" {
		return st.FindUnique(ctx, relstore.ShowSelector{ID: &id}, false)
	}

	res, err := st.s.q.ExecContext(ctx, "UPDATE shows SET "+sets+" WHERE id = "+args.Add(id), args.Args...)
	if err != nil {
		return nil, storeErr(err, "update show %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("show %s not found", id)
	}
	newID := id
	if upd.ID != nil {
		newID = *upd.ID
	}
	return st.FindUnique(ctx, relstore.ShowSelector{ID: &newID}, false)
}

func (st *showStore) Delete(ctx context.Context, id string) (*relstore.ShowRow, error) {
	row, err := st.FindUnique(ctx, relstore.ShowSelector{ID: &id}, false)
	if err != nil {
		return nil, err
	}
	if _, err := st.s.q.ExecContext(ctx, "DELETE FROM shows WHERE id = ?", id); err != nil {
		return nil, storeErr(err, "delete show %s", id)
	}
	return row, nil
}
