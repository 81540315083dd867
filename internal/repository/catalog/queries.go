package catalog

import (
	"github.com/kailas-cloud/discovery/internal/db/postgres"
	"github.com/kailas-cloud/discovery/internal/domain/entity"
	"github.com/kailas-cloud/discovery/internal/domain/search/scope"
)

// Text search configuration used for submissions.
const tsConfig = "english"

const toolColumns = `t.id, t.name, COALESCE(t.description, ''), COALESCE(t.url, ''), t.visibility, t.created_at,
	ARRAY(SELECT g.name FROM tags g JOIN tool_tags tt ON tt.tag_id = g.id
	      WHERE tt.tool_id = t.id ORDER BY g.name) AS tag_names`

// $1 = contains pattern. EXISTS keeps one row per tool however many tags match.
const toolMatchWhere = `t.visibility = 'public' AND (
		t.name ILIKE $1 OR t.description ILIKE $1 OR EXISTS (
			SELECT 1 FROM tool_tags tt JOIN tags g ON g.id = tt.tag_id
			WHERE tt.tool_id = t.id AND g.name ILIKE $1))`

const submissionColumns = `s.id, s.title, COALESCE(s.description, ''), COALESCE(s.url, ''),
	COALESCE(s.submission_type, ''), s.status, COALESCE(u.username, ''), s.created_at,
	ARRAY(SELECT g.name FROM tags g JOIN submission_tags st ON st.tag_id = g.id
	      WHERE st.submission_id = s.id ORDER BY g.name) AS tag_names,
	ARRAY(SELECT tl.name FROM tools tl JOIN submission_tools sx ON sx.tool_id = tl.id
	      WHERE sx.submission_id = s.id ORDER BY tl.name) AS tool_names`

const submissionDocument = `to_tsvector('` + tsConfig + `', s.title || ' ' || COALESCE(s.description, ''))`

type sqlQuery struct {
	text string
	args []any
}

func toolMatch(s scope.Text) sqlQuery {
	return sqlQuery{
		text: `SELECT ` + toolColumns + `
FROM tools t
WHERE ` + toolMatchWhere + `
ORDER BY CASE WHEN t.name ILIKE $2 THEN 0 ELSE 1 END, t.created_at DESC, t.id
OFFSET $3 LIMIT $4`,
		args: []any{postgres.ContainsPattern(s.Query), postgres.PrefixPattern(s.Query), s.Offset, s.Limit},
	}
}

func toolCount(s scope.Text) sqlQuery {
	return sqlQuery{
		text: `SELECT COUNT(*) FROM tools t WHERE ` + toolMatchWhere,
		args: []any{postgres.ContainsPattern(s.Query)},
	}
}

func toolNearest(v scope.Vector) sqlQuery {
	return sqlQuery{
		text: `SELECT ` + toolColumns + `, (t.embedding <=> $1::vector) AS distance
FROM tools t
WHERE t.visibility = 'public' AND t.embedding IS NOT NULL
  AND (t.embedding <=> $1::vector) < $2
ORDER BY distance, t.id
LIMIT $3`,
		args: []any{postgres.VectorLiteral(v.Embedding), v.MaxDistance, v.Limit},
	}
}

// submissionRank combines full-text rank with trigram title similarity.
func submissionRank(s scope.Text) sqlQuery {
	return sqlQuery{
		text: `SELECT ` + submissionColumns + `,
	ts_rank_cd(` + submissionDocument + `, plainto_tsquery('` + tsConfig + `', $1))
	  + similarity(s.title, $1) AS relevance
FROM submissions s
LEFT JOIN users u ON u.id = s.user_id
WHERE s.status = '` + entity.StatusCompleted + `'
  AND ($2 = '' OR s.submission_type = $2)
  AND (` + submissionDocument + ` @@ plainto_tsquery('` + tsConfig + `', $1) OR s.title % $1)
ORDER BY relevance DESC, s.id
LIMIT $3`,
		args: []any{s.Query, s.Type, s.Limit},
	}
}

func submissionMatch(s scope.Text) sqlQuery {
	return sqlQuery{
		text: `SELECT ` + submissionColumns + `
FROM submissions s
LEFT JOIN users u ON u.id = s.user_id
WHERE s.status = '` + entity.StatusCompleted + `'
  AND ($3 = '' OR s.submission_type = $3)
  AND (s.title ILIKE $1 OR s.description ILIKE $1)
ORDER BY CASE WHEN s.title ILIKE $2 THEN 0 ELSE 1 END, s.created_at DESC, s.id
LIMIT $4`,
		args: []any{postgres.ContainsPattern(s.Query), postgres.PrefixPattern(s.Query), s.Type, s.Limit},
	}
}

func submissionNearest(v scope.Vector) sqlQuery {
	return sqlQuery{
		text: `SELECT ` + submissionColumns + `, (s.embedding <=> $1::vector) AS distance
FROM submissions s
LEFT JOIN users u ON u.id = s.user_id
WHERE s.status = '` + entity.StatusCompleted + `'
  AND ($4 = '' OR s.submission_type = $4)
  AND s.embedding IS NOT NULL
  AND (s.embedding <=> $1::vector) < $2
ORDER BY distance, s.id
LIMIT $3`,
		args: []any{postgres.VectorLiteral(v.Embedding), v.MaxDistance, v.Limit, v.Type},
	}
}

// directoryQuery is a prefix-first ILIKE lookup with its matching count.
type directoryQuery struct {
	list  sqlQuery
	count sqlQuery
}

func newDirectoryQuery(columns, from, where, prefixColumn, createdColumn, idColumn string, s scope.Text) directoryQuery {
	contains := postgres.ContainsPattern(s.Query)
	return directoryQuery{
		list: sqlQuery{
			text: `SELECT ` + columns + ` FROM ` + from + ` WHERE ` + where + `
ORDER BY CASE WHEN ` + prefixColumn + ` ILIKE $2 THEN 0 ELSE 1 END, ` + createdColumn + ` DESC, ` + idColumn + `
OFFSET $3 LIMIT $4`,
			args: []any{contains, postgres.PrefixPattern(s.Query), s.Offset, s.Limit},
		},
		count: sqlQuery{
			text: `SELECT COUNT(*) FROM ` + from + ` WHERE ` + where,
			args: []any{contains},
		},
	}
}

func tagMatch(s scope.Text) directoryQuery {
	return newDirectoryQuery(
		"g.id, g.name, g.created_at", "tags g", "g.name ILIKE $1",
		"g.name", "g.created_at", "g.id", s,
	)
}

func userMatch(s scope.Text) directoryQuery {
	return newDirectoryQuery(
		"u.id, u.username, COALESCE(u.bio, ''), u.created_at", "users u",
		"u.deleted_at IS NULL AND (u.username ILIKE $1 OR u.bio ILIKE $1)",
		"u.username", "u.created_at", "u.id", s,
	)
}

func listMatch(s scope.Text) directoryQuery {
	return newDirectoryQuery(
		"l.id, l.name, u.username, l.visibility, l.created_at",
		"lists l JOIN users u ON u.id = l.user_id",
		"l.visibility = 'public' AND (l.name ILIKE $1 OR u.username ILIKE $1)",
		"l.name", "l.created_at", "l.id", s,
	)
}
