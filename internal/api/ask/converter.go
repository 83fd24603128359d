package ask

import (
	"github.com/futig/docqa-backend/internal/entity"
)

func toAskResponse(answer *entity.Answer) entity.AskResponse {
	sources := make([]entity.SourceDTO, 0, len(answer.Sources))
	for _, src := range answer.Sources {
		sources = append(sources, toSourceDTO(src))
	}

	return entity.AskResponse{
		Question: answer.Question,
		Answer:   answer.Answer,
		Sources:  sources,
	}
}

func toSourceDTO(src entity.Source) entity.SourceDTO {
	dto := entity.SourceDTO{
		Page:    src.Page,
		Content: src.Text,
	}
	if src.SourcePath != "" {
		path := src.SourcePath
		dto.Source = &path
	}
	return dto
}
