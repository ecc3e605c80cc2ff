package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sonarlens/sonarlens/internal/pplx/schema"
)

// Exchange is one completed request/response pair.
type Exchange struct {
	ID               int64     `json:"id"`
	RequestID        string    `json:"request_id"`
	Model            string    `json:"model"`
	SystemPrompt     string    `json:"system_prompt,omitempty"`
	UserPrompt       string    `json:"user_prompt"`
	Answer           string    `json:"answer"`
	Citations        []string  `json:"citations,omitempty"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	Cost             *float64  `json:"cost,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewExchange builds an Exchange from a request/response pair.
func NewExchange(requestID string, req schema.ChatRequest, resp *schema.ChatResponse) Exchange {
	ex := Exchange{
		RequestID: requestID,
		Model:     req.Model,
		CreatedAt: time.Now().UTC(),
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case schema.RoleSystem:
			ex.SystemPrompt = msg.Content
		case schema.RoleUser:
			ex.UserPrompt = msg.Content
		}
	}

	if resp == nil {
		return ex
	}
	ex.Answer = resp.Content()
	for _, citation := range resp.Citations {
		ex.Citations = append(ex.Citations, citation.URL)
	}
	ex.PromptTokens = resp.Usage.PromptTokens
	ex.CompletionTokens = resp.Usage.CompletionTokens
	ex.TotalTokens = resp.Usage.TotalTokens
	if resp.Usage.Cost != nil {
		cost := resp.Usage.Cost.TotalCost
		ex.Cost = &cost
	}
	return ex
}

// Save inserts an exchange and returns its assigned ID.
func (s *Store) Save(ctx context.Context, ex Exchange) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("history store is not initialized")
	}

	citations := sql.NullString{}
	if len(ex.Citations) > 0 {
		data, err := json.Marshal(ex.Citations)
		if err != nil {
			return 0, fmt.Errorf("encode citations: %w", err)
		}
		citations = sql.NullString{String: string(data), Valid: true}
	}

	cost := sql.NullFloat64{}
	if ex.Cost != nil {
		cost = sql.NullFloat64{Float64: *ex.Cost, Valid: true}
	}

	createdAt := ex.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO exchanges (
			request_id, model, system_prompt, user_prompt, answer, citations,
			prompt_tokens, completion_tokens, total_tokens, cost, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.RequestID, ex.Model, ex.SystemPrompt, ex.UserPrompt, ex.Answer, citations,
		ex.PromptTokens, ex.CompletionTokens, ex.TotalTokens, cost, createdAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("save exchange: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save exchange: %w", err)
	}
	return id, nil
}

// ListRecent returns up to limit exchanges, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Exchange, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("history store is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, request_id, model, system_prompt, user_prompt, answer, citations,
			prompt_tokens, completion_tokens, total_tokens, cost, created_at
		FROM exchanges
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var out []Exchange
	for rows.Next() {
		var (
			ex        Exchange
			system    sql.NullString
			citations sql.NullString
			cost      sql.NullFloat64
			createdAt int64
		)
		if err := rows.Scan(
			&ex.ID, &ex.RequestID, &ex.Model, &system, &ex.UserPrompt, &ex.Answer, &citations,
			&ex.PromptTokens, &ex.CompletionTokens, &ex.TotalTokens, &cost, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}

		ex.SystemPrompt = system.String
		if citations.Valid && citations.String != "" {
			if err := json.Unmarshal([]byte(citations.String), &ex.Citations); err != nil {
				return nil, fmt.Errorf("decode citations: %w", err)
			}
		}
		if cost.Valid {
			v := cost.Float64
			ex.Cost = &v
		}
		ex.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}

	return out, nil
}

// Prune deletes exchanges created before the cutoff and reports how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("history store is not initialized")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM exchanges WHERE created_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune exchanges: %w", err)
	}
	return res.RowsAffected()
}
