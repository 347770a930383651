// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package loader

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"codeberg.org/openkick/localize/core/tree"
)

// remoteURL builds the conventional endpoint for one language's content.
func (l *Loader) remoteURL(lang string) string {
	return strings.TrimRight(l.remoteBase, "/") + "/" + lang + "/content.json"
}

// loadRemote resolves the remote content layer for lang.
//
// A persisted snapshot fresh within the TTL is reused without touching the
// network. Otherwise the content is fetched, cleaned, and persisted with a
// timestamp; when the fetch fails, a stale snapshot is better than nothing
// and the layer degrades to it. With neither a fetch result nor a snapshot
// the layer is omitted.
func (l *Loader) loadRemote(ctx context.Context, lang string) (tree.Tree, *Source, bool) {
	snapshot, stamp, haveSnapshot := l.readSnapshot(ctx, lang)

	if haveSnapshot && time.Since(stamp) <= l.remoteTTL {
		return snapshot, &Source{
			Origin: OriginRemote,
			Name:   l.remoteURL(lang),
			Time:   stamp,
		}, true
	}

	fetched, ok := l.fetchRemote(ctx, lang)
	if ok {
		now := time.Now()
		l.writeSnapshot(ctx, lang, fetched, now)

		return fetched, &Source{
			Origin: OriginRemote,
			Name:   l.remoteURL(lang),
			Time:   now,
		}, true
	}

	if haveSnapshot {
		l.logger.Warn().
			Str("language", lang).
			Time("snapshot", stamp).
			Msg("Remote fetch failed; using stale snapshot")

		return snapshot, &Source{
			Origin: OriginRemote,
			Name:   l.remoteURL(lang),
			Time:   stamp,
		}, true
	}

	return nil, nil, false
}

// fetchRemote fetches and cleans the remote tree. Any failure, transport
// error, non-2xx status, undecodable payload, or content that sanitizes to
// nothing, drops the layer.
func (l *Loader) fetchRemote(ctx context.Context, lang string) (tree.Tree, bool) {
	url := l.remoteURL(lang)

	resp, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		l.logger.Warn().Err(err).Str("url", url).Msg("Remote fetch failed")

		return nil, false
	}

	if !resp.OK() {
		l.logger.Warn().
			Int("status", resp.StatusCode).
			Str("url", url).
			Msg("Remote fetch returned a non-success status")

		return nil, false
	}

	var raw tree.Tree
	if err := resp.DecodeJSON(&raw); err != nil {
		l.logger.Warn().Err(err).Str("url", url).Msg("Remote content is not a translation tree")

		return nil, false
	}

	cleaned, ok := l.sanitizer.SanitizeTree(raw)
	if !ok {
		l.logger.Warn().Str("url", url).Msg("Remote content sanitized to nothing")

		return nil, false
	}

	return l.sanitizer.FilterNamespaces(cleaned), true
}

// readSnapshot loads the persisted remote tree and its timestamp. The
// snapshot was cleaned before persisting, but it is sanitized again on read;
// persisted state is not trusted across versions.
func (l *Loader) readSnapshot(ctx context.Context, lang string) (tree.Tree, time.Time, bool) {
	content, ok, err := l.storage.Get(ctx, remoteContentKey(lang))
	if err != nil || !ok {
		if err != nil {
			l.logger.Warn().Err(err).Str("language", lang).Msg("Reading remote snapshot failed")
		}

		return nil, time.Time{}, false
	}

	stampRaw, ok, err := l.storage.Get(ctx, remoteStampKey(lang))
	if err != nil || !ok {
		return nil, time.Time{}, false
	}

	unix, err := strconv.ParseInt(stampRaw, 10, 64)
	if err != nil {
		l.logger.Warn().Str("stamp", stampRaw).Msg("Unparsable remote snapshot timestamp")

		return nil, time.Time{}, false
	}

	var snapshot tree.Tree
	if err := json.Unmarshal([]byte(content), &snapshot); err != nil {
		l.logger.Warn().Err(err).Str("language", lang).Msg("Corrupt remote snapshot")

		return nil, time.Time{}, false
	}

	cleaned, ok := l.sanitizer.SanitizeTree(snapshot)
	if !ok {
		return nil, time.Time{}, false
	}

	return l.sanitizer.FilterNamespaces(cleaned), time.Unix(unix, 0), true
}

// writeSnapshot persists the cleaned remote tree with its fetch time, as one
// transactional write when the storage backend supports it.
func (l *Loader) writeSnapshot(ctx context.Context, lang string, t tree.Tree, at time.Time) {
	data, err := json.Marshal(t)
	if err != nil {
		l.logger.Warn().Err(err).Str("language", lang).Msg("Encoding remote snapshot failed")

		return
	}

	entries := map[string]string{
		remoteContentKey(lang): string(data),
		remoteStampKey(lang):   strconv.FormatInt(at.Unix(), 10),
	}

	if batch, ok := l.storage.(BatchStorage); ok {
		if err := batch.SetMulti(ctx, entries); err != nil {
			l.logger.Warn().Err(err).Str("language", lang).Msg("Persisting remote snapshot failed")
		}

		return
	}

	// Content before timestamp: a missing timestamp invalidates the pair,
	// a missing body only wastes the stamp.
	if err := l.storage.Set(ctx, remoteContentKey(lang), entries[remoteContentKey(lang)]); err != nil {
		l.logger.Warn().Err(err).Str("language", lang).Msg("Persisting remote snapshot failed")

		return
	}

	if err := l.storage.Set(ctx, remoteStampKey(lang), entries[remoteStampKey(lang)]); err != nil {
		l.logger.Warn().Err(err).Str("language", lang).Msg("Persisting remote snapshot timestamp failed")
	}
}

// ClearRemoteCache drops the persisted remote snapshot for the active
// language. The next load will fetch fresh content.
func (l *Loader) ClearRemoteCache(ctx context.Context) error {
	lang := l.Language()

	if err := l.storage.Remove(ctx, remoteContentKey(lang)); err != nil {
		return err
	}

	return l.storage.Remove(ctx, remoteStampKey(lang))
}
