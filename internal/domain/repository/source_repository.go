package repository

import "context"

// DocumentSource отдаёт сырой документ (KML, список минералов).
// Политика при ошибке - на стороне вызывающего.
type DocumentSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}
