/*
Package types defines the record model shared across the storage engine,
the coordinator, the hot indexes, and the transports.

Node is a closed tagged union over seven payload kinds (Chat, Message,
Summary, Entity, Attachment, WebSearch, ScrapedPage); Edge and Embedding
round out the data model. NodeId, EdgeId and EmbeddingId are distinct
string newtypes so a caller cannot pass one id kind where another is
expected. Tier and Class enumerate the temperature-tier and logical-database
vocabulary the coordinator routes against.

Quarter(ts) is the pure function used to compute archive shard names; it has
no dependency on wall-clock time and is safe to call from any package.
*/
package types
