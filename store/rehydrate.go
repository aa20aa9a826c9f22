package store

import (
	"encoding/json"
	"log/slog"

	"github.com/openherd/cow/envelope"
)

// Rehydrate iterates every post: record in the Durable Store and loads it
// into idx. A record that fails to deserialize is removed from the store
// rather than indexed, so a corrupt record is self-healing rather than
// silently reappearing on every future restart.
func Rehydrate(d *Durable, idx *Index, logger *slog.Logger) error {
	var toRemove []string
	err := d.IterPosts(func(id string, value []byte) {
		var env envelope.Envelope
		if err := json.Unmarshal(value, &env); err != nil {
			logger.Warn("dropping undecodable stored envelope", slog.String("id", id), slog.Any("error", err))
			toRemove = append(toRemove, id)
			return
		}
		idx.Put(env)
	})
	if err != nil {
		return err
	}
	for _, id := range toRemove {
		if err := d.RemovePost(id); err != nil {
			logger.Warn("failed to remove undecodable stored envelope", slog.String("id", id), slog.Any("error", err))
		}
	}
	return nil
}
