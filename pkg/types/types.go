// Package types defines the core record model shared by the storage engine,
// the coordinator, the hot indexes, and the transports: node/edge/embedding
// identifiers, the Node tagged union, and the temperature-tier vocabulary.
package types

import (
	"encoding/json"
	"time"
)

// NodeId, EdgeId and EmbeddingId are distinct string newtypes so that a
// caller cannot accidentally pass an edge id where a node id is expected.
type NodeId string

type EdgeId string

type EmbeddingId string

// NodeClass is the closed set of node payload kinds. It doubles as the
// coordinator's routing discriminant (§4.3): every NodeClass maps to exactly
// one logical database.
type NodeClass string

const (
	NodeClassChat        NodeClass = "chat"
	NodeClassMessage     NodeClass = "message"
	NodeClassSummary     NodeClass = "summary"
	NodeClassEntity      NodeClass = "entity"
	NodeClassAttachment  NodeClass = "attachment"
	NodeClassWebSearch   NodeClass = "web_search"
	NodeClassScrapedPage NodeClass = "scraped_page"
)

// Node is a tagged union over the node payload kinds. Exactly one of the
// payload fields is populated, selected by Class. New variants are added
// here, at the union's definition site, rather than through subtyping.
type Node struct {
	Id       NodeId    `json:"id"`
	Class    NodeClass `json:"class"`
	Metadata string    `json:"metadata"` // JSON-encoded, caller-opaque

	Chat        *ChatPayload        `json:"chat,omitempty"`
	Message     *MessagePayload     `json:"message,omitempty"`
	Summary     *SummaryPayload     `json:"summary,omitempty"`
	Entity      *EntityPayload      `json:"entity,omitempty"`
	Attachment  *AttachmentPayload  `json:"attachment,omitempty"`
	WebSearch   *WebSearchPayload   `json:"web_search,omitempty"`
	ScrapedPage *ScrapedPagePayload `json:"scraped_page,omitempty"`
}

// ChatPayload is a conversation container: a named sequence of messages.
type ChatPayload struct {
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
}

// MessagePayload is the workhorse record of the system. Timestamp is the
// canonical ordering key and the sole input to quarter assignment (§4.3).
type MessagePayload struct {
	ChatId    string `json:"chat_id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // epoch ms
}

// SummaryPayload is a derived rollup over a window of messages.
type SummaryPayload struct {
	Scope     string `json:"scope"` // "session", "daily", "weekly", "monthly"
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// EntityPayload is a knowledge-graph entity, born inferred and promoted to
// stable by an external confirmation-count signal (§3.4).
type EntityPayload struct {
	Name              string `json:"name"`
	Kind              string `json:"kind"`
	ConfirmationCount int    `json:"confirmation_count"`
}

// AttachmentPayload references binary content stored outside the node
// record itself (path or content-addressed key).
type AttachmentPayload struct {
	MimeType string `json:"mime_type"`
	Ref      string `json:"ref"`
	SizeBy   int64  `json:"size_bytes"`
}

// WebSearchPayload is a recorded search query and its result set.
type WebSearchPayload struct {
	Query     string   `json:"query"`
	Results   []string `json:"results"`
	Timestamp int64    `json:"timestamp"`
}

// ScrapedPagePayload is the fetched content of a single URL.
type ScrapedPagePayload struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Edge is a directed, weighted edge between two nodes. Parallel edges
// between the same pair are permitted (invariant 2, §3.2).
type Edge struct {
	Id        EdgeId `json:"id"`
	From      NodeId `json:"from"`
	To        NodeId `json:"to"`
	EdgeType  string `json:"edge_type"`
	CreatedAt int64  `json:"created_at"`
	Metadata  string `json:"metadata"`
}

// Embedding is a dense vector tied to a generating model. Dimension is
// fixed per model but not globally.
type Embedding struct {
	Id     EmbeddingId `json:"id"`
	Vector []float32   `json:"vector"`
	Model  string      `json:"model"`
}

// Tier is a temperature-keyed partition name. The set of valid tiers is
// class-dependent; see the conversation, knowledge and summary tier constant
// groups below.
type Tier string

// Conversation and embedding tiers (§3.3): active (0-30d), recent (30-90d),
// archive (>=90d, sharded by calendar quarter).
const (
	TierActive  Tier = "active"
	TierRecent  Tier = "recent"
	TierArchive Tier = "archive"
)

// Knowledge tiers: born inferred, promoted to stable by an external signal.
const (
	TierStable   Tier = "stable"
	TierInferred Tier = "inferred"
)

// Summary tiers.
const (
	TierSession Tier = "session"
	TierDaily   Tier = "daily"
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"
)

// Class is the closed set of logical databases the coordinator routes
// across (§2, §4.3).
type Class string

const (
	ClassConversations Class = "conversations"
	ClassKnowledge     Class = "knowledge"
	ClassEmbeddings    Class = "embeddings"
	ClassSummaries     Class = "summaries"
	ClassToolResults   Class = "tool-results"
	ClassExperience    Class = "experience"
	ClassMeta          Class = "meta"
	ClassModelCache    Class = "model-cache"
)

// PromotionAgeMs are the age thresholds (§3.4, §4.3) that drive tier
// transitions for conversations and embeddings.
const (
	ActiveToRecentAgeMs  int64 = 30 * 86_400_000
	RecentToArchiveAgeMs int64 = 90 * 86_400_000
)

// Quarter computes the "YYYY-Qn" archive shard identifier for a millisecond
// epoch timestamp, using the calendar month in UTC (§4.3, testable property
// 5 — quarter is a pure function of ts).
func Quarter(tsMs int64) string {
	t := time.UnixMilli(tsMs).UTC()
	q := (int(t.Month())-1)/3 + 1
	return formatQuarter(t.Year(), q)
}

func formatQuarter(year, quarter int) string {
	digits := [4]byte{
		byte('0' + year/1000%10),
		byte('0' + year/100%10),
		byte('0' + year/10%10),
		byte('0' + year%10),
	}
	return string(digits[:]) + "-Q" + string(byte('0'+quarter))
}

// Marshal/Unmarshal are the zero-copy-friendly encode/decode pair used by
// the storage layer. Encoding is plain JSON, and readers decode the whole
// record; there is no partial-decode fast path.
func (n *Node) Marshal() ([]byte, error) { return json.Marshal(n) }

func UnmarshalNode(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (e *Edge) Marshal() ([]byte, error) { return json.Marshal(e) }

func UnmarshalEdge(data []byte) (*Edge, error) {
	var e Edge
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *Embedding) Marshal() ([]byte, error) { return json.Marshal(e) }

func UnmarshalEmbedding(data []byte) (*Embedding, error) {
	var e Embedding
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
