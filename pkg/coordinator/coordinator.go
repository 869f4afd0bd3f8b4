// Package coordinator implements the seven-class x tier database layout:
// it routes record inserts and lookups by record class, lazily creates the
// colder tiers on first need, and quarter-shards the archive tier by
// message timestamp (§4.3).
package coordinator

import (
	"fmt"
	"path"
	"sync"

	"github.com/kodewerx/memoria/pkg/log"
	"github.com/kodewerx/memoria/pkg/registry"
	"github.com/kodewerx/memoria/pkg/storage"
	"github.com/kodewerx/memoria/pkg/types"
	"github.com/rs/zerolog"
)

const (
	nodesTree      = "nodes"
	embeddingsTree = "embeddings"
	blobTree       = "data"
)

// confirmationThreshold is the confirmation count at or above which an
// entity is considered stable rather than inferred (§3.3).
const confirmationThreshold = 10

// Coordinator owns the full set of logical-database engines and implements
// the cascading lookup and promotion semantics described in §4.3.
type Coordinator struct {
	reg *registry.Registry
	mu  sync.Mutex // guards lazy storage creation
	log zerolog.Logger
}

// New opens the eagerly-resident storages (conversations/active,
// knowledge/active, embeddings/active, summaries/session, and the four
// single-tier classes) under baseDir. Colder tiers are created lazily.
func New(baseDir string) (*Coordinator, error) {
	c := &Coordinator{
		reg: registry.New(baseDir),
		log: log.WithComponent("coordinator"),
	}

	eager := []struct {
		name       string
		collection string
	}{
		{"conversations/active", nodesTree},
		{"knowledge/active", nodesTree},
		{"embeddings/active", embeddingsTree},
		{"summaries/session", nodesTree},
		{"tool-results", nodesTree},
		{"experience", blobTree},
		{"meta", blobTree},
		{"model-cache", blobTree},
	}

	for _, e := range eager {
		if err := c.reg.AddStorage(e.name, []string{e.collection}); err != nil {
			return nil, fmt.Errorf("coordinator: open %s: %w", e.name, err)
		}
	}

	return c, nil
}

// Close closes every open storage. It does not call Flush first.
func (c *Coordinator) Close() error {
	return c.reg.Close()
}

// Registry exposes the underlying registry for components (e.g. the
// structural index) that need direct tree access alongside the
// coordinator's own routed trees.
func (c *Coordinator) Registry() *registry.Registry { return c.reg }

func (c *Coordinator) ensureStorage(name, collection string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reg.Has(name) {
		return nil
	}
	if err := c.reg.AddStorage(name, []string{collection}); err != nil {
		return err
	}
	c.log.Debug().Str("storage", name).Msg("lazily opened storage")
	return nil
}

func archiveStorageName(class types.Class, quarter string) string {
	return path.Join(string(class), "archive", quarter)
}

func tierStorageName(class types.Class, tier types.Tier) string {
	return path.Join(string(class), string(tier))
}

// --- Insert operations (§4.3 routing) ---

// InsertChat writes a Chat node to conversations/active.
func (c *Coordinator) InsertChat(node *types.Node) error {
	if node.Class != types.NodeClassChat {
		return fmt.Errorf("coordinator: InsertChat requires NodeClassChat, got %s", node.Class)
	}
	return c.insertNode("conversations/active", nodesTree, node)
}

// InsertMessage writes a Message node to conversations/active.
func (c *Coordinator) InsertMessage(node *types.Node) error {
	if node.Class != types.NodeClassMessage {
		return fmt.Errorf("coordinator: InsertMessage requires NodeClassMessage, got %s", node.Class)
	}
	return c.insertNode("conversations/active", nodesTree, node)
}

// InsertEntity writes an Entity node to knowledge/active. Entities are
// later routed to stable or inferred by PromoteEntity, driven by an
// external confirmation-count signal (§3.4).
func (c *Coordinator) InsertEntity(node *types.Node) error {
	if node.Class != types.NodeClassEntity {
		return fmt.Errorf("coordinator: InsertEntity requires NodeClassEntity, got %s", node.Class)
	}
	return c.insertNode("knowledge/active", nodesTree, node)
}

// InsertWebSearch writes a WebSearch node to the single-tier tool-results
// storage.
func (c *Coordinator) InsertWebSearch(node *types.Node) error {
	if node.Class != types.NodeClassWebSearch {
		return fmt.Errorf("coordinator: InsertWebSearch requires NodeClassWebSearch, got %s", node.Class)
	}
	return c.insertNode("tool-results", nodesTree, node)
}

// InsertScrapedPage writes a ScrapedPage node to the single-tier
// tool-results storage.
func (c *Coordinator) InsertScrapedPage(node *types.Node) error {
	if node.Class != types.NodeClassScrapedPage {
		return fmt.Errorf("coordinator: InsertScrapedPage requires NodeClassScrapedPage, got %s", node.Class)
	}
	return c.insertNode("tool-results", nodesTree, node)
}

// InsertSummary writes a Summary node directly to the given tier
// (session/daily/weekly/monthly), lazily opening it if necessary.
func (c *Coordinator) InsertSummary(node *types.Node, tier types.Tier) error {
	if node.Class != types.NodeClassSummary {
		return fmt.Errorf("coordinator: InsertSummary requires NodeClassSummary, got %s", node.Class)
	}
	name := tierStorageName(types.ClassSummaries, tier)
	if err := c.ensureStorage(name, nodesTree); err != nil {
		return err
	}
	return c.insertNode(name, nodesTree, node)
}

// InsertEmbedding writes an Embedding to embeddings/active.
func (c *Coordinator) InsertEmbedding(e *types.Embedding) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}
	return c.reg.Insert("embeddings/active", embeddingsTree, []byte(e.Id), data)
}

func (c *Coordinator) insertNode(storageName, tree string, node *types.Node) error {
	data, err := node.Marshal()
	if err != nil {
		return err
	}
	return c.reg.Insert(storageName, tree, []byte(node.Id), data)
}

// --- Lookups (§4.3 cascading order) ---

// GetMessage looks up a Message node by id, cascading
// active -> recent -> archives.
func (c *Coordinator) GetMessage(id types.NodeId, tsHint *int64) (*types.Node, error) {
	return c.getNode(types.ClassConversations, id, tsHint)
}

// GetChat looks up a Chat node by id, following the same cascade as
// GetMessage.
func (c *Coordinator) GetChat(id types.NodeId, tsHint *int64) (*types.Node, error) {
	return c.getNode(types.ClassConversations, id, tsHint)
}

// GetEntity looks up an Entity node, cascading
// active -> stable -> inferred.
func (c *Coordinator) GetEntity(id types.NodeId) (*types.Node, error) {
	return c.getNode(types.ClassKnowledge, id, nil)
}

// GetNode is the generic cascading lookup usable for any class.
func (c *Coordinator) GetNode(class types.Class, id types.NodeId, tsHint *int64) (*types.Node, error) {
	return c.getNode(class, id, tsHint)
}

// tiersFor returns the non-archive tiers of class, in cascade order.
func tiersFor(class types.Class) []types.Tier {
	switch class {
	case types.ClassConversations, types.ClassEmbeddings:
		return []types.Tier{types.TierActive, types.TierRecent}
	case types.ClassKnowledge:
		return []types.Tier{types.TierActive, types.TierStable, types.TierInferred}
	case types.ClassSummaries:
		return []types.Tier{types.TierSession, types.TierDaily, types.TierWeekly, types.TierMonthly}
	default:
		return nil
	}
}

func hasArchive(class types.Class) bool {
	return class == types.ClassConversations || class == types.ClassEmbeddings
}

func singleTierName(class types.Class) (string, bool) {
	switch class {
	case types.ClassToolResults:
		return "tool-results", true
	case types.ClassExperience:
		return "experience", true
	case types.ClassMeta:
		return "meta", true
	case types.ClassModelCache:
		return "model-cache", true
	default:
		return "", false
	}
}

func (c *Coordinator) getNode(class types.Class, id types.NodeId, tsHint *int64) (*types.Node, error) {
	if name, ok := singleTierName(class); ok {
		return c.lookupInStorage(name, id)
	}

	for _, tier := range tiersFor(class) {
		name := tierStorageName(class, tier)
		if !c.reg.Has(name) {
			continue
		}
		node, err := c.lookupInStorage(name, id)
		if err != nil {
			return nil, err
		}
		if node != nil {
			return node, nil
		}
	}

	if !hasArchive(class) {
		return nil, nil
	}

	visited := make(map[string]bool)

	if tsHint != nil {
		hintedQuarter := types.Quarter(*tsHint)
		name := archiveStorageName(class, hintedQuarter)
		if err := c.ensureStorage(name, nodesTree); err != nil {
			return nil, err
		}
		visited[name] = true
		node, err := c.lookupInStorage(name, id)
		if err != nil {
			return nil, err
		}
		if node != nil {
			return node, nil
		}
	}

	prefix := path.Join(string(class), "archive") + "/"
	for _, name := range c.reg.NamesWithPrefix(prefix) {
		if visited[name] {
			continue
		}
		node, err := c.lookupInStorage(name, id)
		if err != nil {
			return nil, err
		}
		if node != nil {
			return node, nil
		}
	}

	return nil, nil
}

func (c *Coordinator) lookupInStorage(storageName string, id types.NodeId) (*types.Node, error) {
	guard, err := c.reg.Get(storageName, nodesTree, []byte(id))
	if err != nil {
		if err == registry.ErrUnknownStorage {
			return nil, nil
		}
		return nil, err
	}
	if guard == nil {
		return nil, nil
	}
	defer guard.Release()
	return types.UnmarshalNode(guard.Bytes())
}

// GetEmbedding looks up an embedding by id, cascading active -> recent ->
// archives the same way nodes do.
func (c *Coordinator) GetEmbedding(id types.EmbeddingId, tsHint *int64) (*types.Embedding, error) {
	for _, tier := range []types.Tier{types.TierActive, types.TierRecent} {
		name := tierStorageName(types.ClassEmbeddings, tier)
		if !c.reg.Has(name) {
			continue
		}
		e, err := c.lookupEmbedding(name, id)
		if err != nil || e != nil {
			return e, err
		}
	}

	if tsHint != nil {
		name := archiveStorageName(types.ClassEmbeddings, types.Quarter(*tsHint))
		if err := c.ensureStorage(name, embeddingsTree); err != nil {
			return nil, err
		}
		e, err := c.lookupEmbedding(name, id)
		if err != nil || e != nil {
			return e, err
		}
	}

	prefix := path.Join(string(types.ClassEmbeddings), "archive") + "/"
	for _, name := range c.reg.NamesWithPrefix(prefix) {
		e, err := c.lookupEmbedding(name, id)
		if err != nil || e != nil {
			return e, err
		}
	}

	return nil, nil
}

func (c *Coordinator) lookupEmbedding(storageName string, id types.EmbeddingId) (*types.Embedding, error) {
	guard, err := c.reg.Get(storageName, embeddingsTree, []byte(id))
	if err != nil {
		if err == registry.ErrUnknownStorage {
			return nil, nil
		}
		return nil, err
	}
	if guard == nil {
		return nil, nil
	}
	defer guard.Release()
	return types.UnmarshalEmbedding(guard.Bytes())
}

// --- Deletion (broadcast across all tiers of the class) ---

// DeleteNode removes id from every tier of class. Misses on tiers that
// don't contain the key are ignored; deletion never narrows the tier set
// it tries (§4.3).
func (c *Coordinator) DeleteNode(class types.Class, id types.NodeId) error {
	if name, ok := singleTierName(class); ok {
		return ignoreUnknownStorage(c.reg.Remove(name, nodesTree, []byte(id)))
	}

	for _, tier := range tiersFor(class) {
		name := tierStorageName(class, tier)
		if err := ignoreUnknownStorage(c.reg.Remove(name, nodesTree, []byte(id))); err != nil {
			return err
		}
	}

	if hasArchive(class) {
		prefix := path.Join(string(class), "archive") + "/"
		for _, name := range c.reg.NamesWithPrefix(prefix) {
			if err := ignoreUnknownStorage(c.reg.Remove(name, nodesTree, []byte(id))); err != nil {
				return err
			}
		}
	}

	return nil
}

func ignoreUnknownStorage(err error) error {
	if err == registry.ErrUnknownStorage {
		return nil
	}
	return err
}

// --- Promotion (§3.4, §4.3) ---

// PromoteConversations scans conversations/active for records whose age
// (relative to nowMs) is >= 30 days and moves them to conversations/recent,
// then scans recent for records >= 90 days old and moves them to their
// archive quarter. The operation is not atomic across tiers: a crash
// between insert and delete leaves a tolerable transient duplicate (§4.3,
// open question on promotion atomicity).
func (c *Coordinator) PromoteConversations(nowMs int64) (int, error) {
	return c.promoteTiered(types.ClassConversations, nowMs)
}

// PromoteEmbeddings moves embeddings through the same active -> recent ->
// archive tiers as PromoteConversations, but without an age check:
// embeddings carry no timestamp, so every embedding in active moves to
// recent, and then every embedding in recent (including those just moved)
// moves to the archive quarter from embeddingQuarterFallback, all in one
// call. nowMs is passed through but does not affect which records move.
func (c *Coordinator) PromoteEmbeddings(nowMs int64) (int, error) {
	moved := 0

	active := tierStorageName(types.ClassEmbeddings, types.TierActive)
	toMove, err := c.scanAgedEmbeddings(active, nowMs, types.ActiveToRecentAgeMs)
	if err != nil {
		return moved, err
	}
	recent := tierStorageName(types.ClassEmbeddings, types.TierRecent)
	if len(toMove) > 0 {
		if err := c.ensureStorage(recent, embeddingsTree); err != nil {
			return moved, err
		}
	}
	for _, e := range toMove {
		if err := c.moveEmbedding(active, recent, e); err != nil {
			return moved, err
		}
		moved++
	}

	if c.reg.Has(recent) {
		toArchive, err := c.scanAgedEmbeddings(recent, nowMs, types.RecentToArchiveAgeMs)
		if err != nil {
			return moved, err
		}
		for _, e := range toArchive {
			quarter := embeddingQuarterFallback(e)
			dest := archiveStorageName(types.ClassEmbeddings, quarter)
			if err := c.ensureStorage(dest, embeddingsTree); err != nil {
				return moved, err
			}
			if err := c.moveEmbedding(recent, dest, e); err != nil {
				return moved, err
			}
			moved++
		}
	}

	return moved, nil
}

// embeddingQuarterFallback computes the archive quarter for an embedding.
// Embeddings carry no timestamp or metadata of their own, so every archived
// embedding is assigned the zero-epoch quarter, Quarter(0) ("1970-Q1").
func embeddingQuarterFallback(e *types.Embedding) string {
	return types.Quarter(0)
}

func (c *Coordinator) scanAgedEmbeddings(storageName string, nowMs, minAgeMs int64) ([]*types.Embedding, error) {
	it, err := c.reg.ScanPrefix(storageName, embeddingsTree, nil)
	if err != nil {
		if err == registry.ErrUnknownStorage {
			return nil, nil
		}
		return nil, err
	}
	defer it.Close()

	var out []*types.Embedding
	for it.Next() {
		e, err := types.UnmarshalEmbedding(it.Value())
		if err != nil {
			return nil, err
		}
		// Embeddings do not carry their own age signal in this spec; treat
		// every embedding in a tiered scan as eligible once its storage is
		// swept, matching the coarse sweep cadence used for conversations.
		out = append(out, e)
	}
	return out, nil
}

func (c *Coordinator) moveEmbedding(from, to string, e *types.Embedding) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}
	if err := c.reg.Insert(to, embeddingsTree, []byte(e.Id), data); err != nil {
		return err
	}
	return c.reg.Remove(from, embeddingsTree, []byte(e.Id))
}

func (c *Coordinator) promoteTiered(class types.Class, nowMs int64) (int, error) {
	moved := 0

	active := tierStorageName(class, types.TierActive)
	toMove, err := c.scanAgedNodes(active, nowMs, types.ActiveToRecentAgeMs)
	if err != nil {
		return moved, err
	}
	recent := tierStorageName(class, types.TierRecent)
	if len(toMove) > 0 {
		if err := c.ensureStorage(recent, nodesTree); err != nil {
			return moved, err
		}
	}
	for _, node := range toMove {
		if err := c.moveNode(active, recent, node); err != nil {
			return moved, err
		}
		moved++
	}

	if c.reg.Has(recent) {
		toArchive, err := c.scanAgedNodes(recent, nowMs, types.RecentToArchiveAgeMs)
		if err != nil {
			return moved, err
		}
		for _, node := range toArchive {
			ts, ok := nodeTimestamp(node)
			if !ok {
				continue
			}
			dest := archiveStorageName(class, types.Quarter(ts))
			if err := c.ensureStorage(dest, nodesTree); err != nil {
				return moved, err
			}
			if err := c.moveNode(recent, dest, node); err != nil {
				return moved, err
			}
			moved++
		}
	}

	return moved, nil
}

func (c *Coordinator) scanAgedNodes(storageName string, nowMs, minAgeMs int64) ([]*types.Node, error) {
	it, err := c.reg.ScanPrefix(storageName, nodesTree, nil)
	if err != nil {
		if err == registry.ErrUnknownStorage {
			return nil, nil
		}
		return nil, err
	}
	defer it.Close()

	var out []*types.Node
	for it.Next() {
		node, err := types.UnmarshalNode(it.Value())
		if err != nil {
			return nil, err
		}
		ts, ok := nodeTimestamp(node)
		if !ok {
			continue
		}
		if nowMs-ts >= minAgeMs {
			out = append(out, node)
		}
	}
	return out, nil
}

func (c *Coordinator) moveNode(from, to string, node *types.Node) error {
	data, err := node.Marshal()
	if err != nil {
		return err
	}
	if err := c.reg.Insert(to, nodesTree, []byte(node.Id), data); err != nil {
		return err
	}
	return c.reg.Remove(from, nodesTree, []byte(node.Id))
}

// nodeTimestamp extracts the promotion-relevant timestamp for a node.
// Messages use their own timestamp (the canonical ordering key, §3.2
// invariant 3); chats use their creation time.
func nodeTimestamp(node *types.Node) (int64, bool) {
	switch {
	case node.Message != nil:
		return node.Message.Timestamp, true
	case node.Chat != nil:
		return node.Chat.CreatedAt, true
	case node.Summary != nil:
		return node.Summary.Timestamp, true
	case node.WebSearch != nil:
		return node.WebSearch.Timestamp, true
	case node.ScrapedPage != nil:
		return node.ScrapedPage.Timestamp, true
	default:
		return 0, false
	}
}

// PromoteEntity moves an entity between knowledge/active, knowledge/stable
// and knowledge/inferred based on an externally supplied confirmation
// count (§3.4): confirmationCount >= 10 moves it to stable, otherwise to
// inferred. The entity is read from whichever tier currently holds it.
func (c *Coordinator) PromoteEntity(id types.NodeId, confirmationCount int) error {
	dest := types.TierInferred
	if confirmationCount >= confirmationThreshold {
		dest = types.TierStable
	}

	var (
		node    *types.Node
		sourceT string
	)
	for _, tier := range tiersFor(types.ClassKnowledge) {
		name := tierStorageName(types.ClassKnowledge, tier)
		if !c.reg.Has(name) {
			continue
		}
		n, err := c.lookupInStorage(name, id)
		if err != nil {
			return err
		}
		if n != nil {
			node = n
			sourceT = name
			break
		}
	}
	if node == nil {
		return storage.ErrNotFound
	}

	if node.Entity != nil {
		node.Entity.ConfirmationCount = confirmationCount
	}

	destName := tierStorageName(types.ClassKnowledge, dest)
	if destName == sourceT {
		return c.insertNode(destName, nodesTree, node)
	}
	if err := c.ensureStorage(destName, nodesTree); err != nil {
		return err
	}
	return c.moveNode(sourceT, destName, node)
}
