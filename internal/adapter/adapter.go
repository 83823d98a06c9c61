package adapter

import (
	"fmt"

	"stormrag/internal/api"
	"stormrag/internal/domain/document"
)

func ToInitJobResponse(job document.Job) api.InitJobResponse {
	return api.InitJobResponse{
		JobID:     job.ID,
		State:     string(job.State),
		StatusURL: fmt.Sprintf("/ingest/status/%s", job.ID),
	}
}

func ToJobStatusResponse(job document.Job) api.JobStatusResponse {
	return api.JobStatusResponse{
		JobID: job.ID,
		State: string(job.State),
	}
}

func ToQueryRequest(req api.QueryRequest) document.QueryRequest {
	return document.QueryRequest{
		Query: req.Query,
		TopK:  req.TopK,
	}
}

func ToQueryResponse(ans document.FinalAnswer) api.QueryResponse {
	context := make([]api.RetrievedChunk, len(ans.RetrievedContext))
	for i, c := range ans.RetrievedContext {
		context[i] = api.RetrievedChunk{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Text:       c.Text,
			PageNumber: c.PageNumber,
			Score:      c.Score,
		}
	}
	return api.QueryResponse{
		Query:            ans.Query,
		GeneratedAnswer:  ans.GeneratedAnswer,
		RetrievedContext: context,
	}
}

func ToDocumentList(docs []document.Document) []api.DocumentInfo {
	out := make([]api.DocumentInfo, len(docs))
	for i, d := range docs {
		out[i] = api.DocumentInfo{
			DocumentID: d.ID,
			Name:       d.Name,
			IngestedAt: d.IngestedAt,
		}
	}
	return out
}
