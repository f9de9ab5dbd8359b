package httpapi

import (
	"cutoutd/internal/codec"
	"cutoutd/internal/history"
	"cutoutd/internal/session"
	"cutoutd/pkg/types"
)

// sessionView derives the rendering-layer view from a snapshot.
func sessionView(s session.Snapshot, c codec.Codec) types.SessionResponse {
	return types.SessionResponse{
		State:            string(s.Phase),
		StatusMessage:    s.StatusMessage,
		Error:            s.ErrorMessage,
		Progress:         s.Progress,
		Cycle:            s.Cycle,
		IsIdle:           s.IsIdle(),
		IsLoading:        s.IsLoading(),
		IsProcessing:     s.IsProcessing(),
		IsDone:           s.IsDone(),
		IsError:          s.IsError(),
		HasImage:         s.HasImage(),
		HasResult:        s.HasResult(),
		OriginalImageURL: c.DataURL(s.OriginalImage),
		ResultImageURL:   c.DataURL(s.ResultImage),
		SelectedModel:    s.SelectedModel,
		DownloadProgress: types.DownloadProgress{
			Downloaded: s.DownloadProgress.Downloaded,
			Total:      s.DownloadProgress.Total,
		},
		HistoryLen: len(s.History),
	}
}

func historyView(items []history.Item, c codec.Codec) types.HistoryResponse {
	out := types.HistoryResponse{Items: make([]types.HistoryItem, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, historyItemView(it, c))
	}
	return out
}

func historyItemView(it history.Item, c codec.Codec) types.HistoryItem {
	hi := types.HistoryItem{
		ID:            it.ID,
		OriginalImage: it.OriginalImage,
		ResultImage:   it.ResultImage,
		Timestamp:     it.Timestamp,
	}
	if u := c.DataURL(&it.OriginalImage); u != nil {
		hi.OriginalImageURL = *u
	}
	if u := c.DataURL(&it.ResultImage); u != nil {
		hi.ResultImageURL = *u
	}
	return hi
}
