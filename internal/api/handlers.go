package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/contract"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// maxBody bounds request bodies; stone and report fields are short text.
const maxBody = 64 << 10

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"height": s.host.Height(),
		"seq":    s.host.Seq(),
	})
}

func (s *Server) authorizeLab(w http.ResponseWriter, r *http.Request) {
	lab := ir.Principal(chi.URLParam(r, "principal"))
	s.execute(w, r, contract.AuthorizeLabCall(lab), http.StatusOK)
}

func (s *Server) revokeLab(w http.ResponseWriter, r *http.Request) {
	lab := ir.Principal(chi.URLParam(r, "principal"))
	s.execute(w, r, contract.RevokeLabCall(lab), http.StatusOK)
}

func (s *Server) getLab(w http.ResponseWriter, r *http.Request) {
	p := ir.Principal(chi.URLParam(r, "principal"))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"principal":  p,
		"authorized": s.host.IsAuthorized(p),
	})
}

func (s *Server) registerStone(w http.ResponseWriter, r *http.Request) {
	args, err := readArgs(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.execute(w, r, ir.Call{Action: ir.ActionRegisterStone, Args: args}, http.StatusCreated)
}

// mine closes the current block. Only useful when the host does not
// auto-mine; otherwise every logged call already opens a new height.
func (s *Server) mine(w http.ResponseWriter, r *http.Request) {
	height := s.host.Mine()
	s.logger.Info("mined", "height", height)
	s.writeJSON(w, http.StatusOK, map[string]any{"height": height})
}

func (s *Server) lastStoneID(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"last_stone_id": s.host.LastStoneID()})
}

func (s *Server) getStone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	stone, ok := s.host.Stone(ir.StoneID(id))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("stone %d not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, stone)
}

func (s *Server) verifyStone(w http.ResponseWriter, r *http.Request) {
	s.executeForStone(w, r, ir.ActionVerifyStone, http.StatusOK)
}

func (s *Server) getVerification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	v, ok := s.host.Verification(ir.StoneID(id))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("stone %d has no verification", id))
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) discloseTreatment(w http.ResponseWriter, r *http.Request) {
	s.executeForStone(w, r, ir.ActionDiscloseTreatment, http.StatusCreated)
}

func (s *Server) listTreatments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	stoneID := ir.StoneID(id)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"stone_id":   stoneID,
		"count":      s.host.TreatmentCount(stoneID),
		"treatments": s.host.Treatments(stoneID),
	})
}

func (s *Server) getTreatment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	tid, err := pathID(r, "tid")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	t, ok := s.host.Treatment(ir.StoneID(id), ir.TreatmentID(tid))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("treatment %d of stone %d not found", tid, id))
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) readLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ir.EntryFilter{
		Action: ir.ActionRef(q.Get("action")),
		Caller: ir.Principal(q.Get("caller")),
	}
	var err error
	if v := q.Get("after"); v != "" {
		if filter.AfterSeq, err = strconv.ParseInt(v, 10, 64); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("after: %w", err))
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("limit must be a non-negative integer"))
			return
		}
	}

	entries, err := s.host.Entries(r.Context(), filter)
	if err != nil {
		s.logger.Error("read call log failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// executeForStone runs a stone-scoped call. The stone id comes from the
// path and may not be repeated in the body.
func (s *Server) executeForStone(w http.ResponseWriter, r *http.Request, action ir.ActionRef, status int) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	args, err := readArgs(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, dup := args["stone_id"]; dup {
		s.writeError(w, http.StatusBadRequest, errors.New("stone_id is taken from the path"))
		return
	}
	args["stone_id"] = ir.Int(id)
	s.execute(w, r, ir.Call{Action: action, Args: args}, status)
}

// execute runs call for the X-Principal caller and writes the receipt.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, call ir.Call, status int) {
	caller := ir.Principal(r.Header.Get(PrincipalHeader))
	if caller == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing %s header", PrincipalHeader))
		return
	}

	receipt, err := s.host.Execute(r.Context(), caller, call)
	switch {
	case errors.Is(err, ir.ErrInvalidCall):
		s.writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		s.logger.Error("execute failed", "action", call.Action, "caller", caller, "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	if rejected := receipt.Outcome().Err(); rejected != nil {
		code := ir.CodeOf(rejected)
		s.writeJSON(w, int(code), rejection{
			Error: rejectionError{
				Code:    code,
				Case:    receipt.Case,
				Message: rejectionMessage(code),
			},
			Receipt: receipt,
		})
		return
	}
	s.writeJSON(w, status, receipt)
}

type rejection struct {
	Error   rejectionError `json:"error"`
	Receipt ir.Receipt     `json:"receipt"`
}

type rejectionError struct {
	Code    ir.ErrorCode `json:"code"`
	Case    string       `json:"case"`
	Message string       `json:"message"`
}

func rejectionMessage(code ir.ErrorCode) string {
	switch code {
	case ir.CodeForbidden:
		return "caller is not the contract owner"
	case ir.CodeUnauthorized:
		return "caller is not an authorized laboratory"
	default:
		return "call rejected"
	}
}

// readArgs decodes the body as constrained call arguments.
// Floats, nulls and non-object bodies are rejected.
func readArgs(r *http.Request) (ir.Object, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBody {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBody)
	}
	var args ir.Object
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if args == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return args, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

// writeJSON writes v with status. The header is already sent when encoding
// fails, so the error can only be logged.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response failed", "status", status, "error", err)
	}
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	var body errorBody
	body.Error.Message = err.Error()
	s.writeJSON(w, status, body)
}
