/*
Package handler provides HTTP handler functions for room rosters and ban lists.
*/
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"roombot/internal/app/banlist"
	"roombot/internal/app/chat"
	"roombot/internal/pkg/errs"
	"roombot/internal/pkg/req"
	"roombot/internal/pkg/resp"
)

// PatternInput is the body of a ban list addition.
type PatternInput struct {
	Pattern string `json:"pattern"`
}

// HandleListRooms returns the managed room names.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"rooms": deps.Manager.Rooms(),
		})
	}
}

// HandleListUsers returns the roster snapshot of a room.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := lookupSession(w, r, deps)
		if !ok {
			return
		}
		resp.RespondSuccess(w, r, map[string]any{
			"room":  session.Room(),
			"users": session.Users(),
		})
	}
}

// HandleGetBanList returns the entries of one ban list.
func HandleGetBanList(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, list, ok := lookupList(w, r, deps)
		if !ok {
			return
		}
		resp.RespondSuccess(w, r, map[string]any{
			"room":    session.Room(),
			"list":    list,
			"entries": session.Bans().Entries(list),
		})
	}
}

// HandleAddBanPattern adds the posted pattern to a ban list.
func HandleAddBanPattern(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, list, ok := lookupList(w, r, deps)
		if !ok {
			return
		}

		var input PatternInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		input.Pattern = strings.TrimSpace(input.Pattern)
		if input.Pattern == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingArgument, "pattern"))
			return
		}
		if banlist.TooShort(list, input.Pattern) {
			resp.RespondError(w, r, errs.NewError(errs.ErrPatternTooShort, "Pattern", len(input.Pattern)))
			return
		}

		if err := session.Bans().Add(r.Context(), list, input.Pattern); err != nil {
			respondStoreError(w, r, err)
			return
		}

		zerolog.Ctx(r.Context()).Info().
			Str("room", session.Room()).
			Str("list", string(list)).
			Str("pattern", input.Pattern).
			Msg("Ban pattern added.")

		resp.RespondCreated(w, r, map[string]any{
			"list":    list,
			"pattern": input.Pattern,
		})
	}
}

// HandleRemoveBanPattern removes the pattern given in the query from a ban list.
func HandleRemoveBanPattern(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, list, ok := lookupList(w, r, deps)
		if !ok {
			return
		}

		pattern, customErr := req.Query(r, "pattern")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := session.Bans().Remove(r.Context(), list, pattern); err != nil {
			respondStoreError(w, r, err)
			return
		}

		zerolog.Ctx(r.Context()).Info().
			Str("room", session.Room()).
			Str("list", string(list)).
			Str("pattern", pattern).
			Msg("Ban pattern removed.")

		resp.RespondSuccess(w, r, map[string]any{
			"list":    list,
			"pattern": pattern,
		})
	}
}

func lookupSession(w http.ResponseWriter, r *http.Request, deps *AppDeps) (*chat.Session, bool) {
	session, ok := deps.Manager.Session(chi.URLParam(r, "room"))
	if !ok {
		resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
		return nil, false
	}
	return session, true
}

func lookupList(w http.ResponseWriter, r *http.Request, deps *AppDeps) (*chat.Session, banlist.List, bool) {
	session, ok := lookupSession(w, r, deps)
	if !ok {
		return nil, "", false
	}
	list, err := banlist.ParseList(chi.URLParam(r, "list"))
	if err != nil {
		respondStoreError(w, r, err)
		return nil, "", false
	}
	return session, list, true
}

// respondStoreError answers coded store errors as is and hides everything else.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		resp.RespondError(w, r, customErr)
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("Ban list update failed")
	resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
}
