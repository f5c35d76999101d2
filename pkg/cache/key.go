package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// ImageKeyOpts are the inputs besides the DOT text that change the image.
type ImageKeyOpts struct {
	Backend string
	// Tool is the rasterizer executable for the exec backend. Two Graphviz
	// installs can draw the same text differently.
	Tool   string
	Format string
	DPI    int
}

// ImageKey derives the cache key for an image rendered from dot.
// Keys look like "image:<backend>:<format>:<dpi>:<digest>" so entries for one
// backend can be told apart when inspecting the store. The digest covers the
// tool path and the DOT text.
func ImageKey(dot string, opts ImageKeyOpts) string {
	buf := make([]byte, 0, 96)
	buf = append(buf, "image:"...)
	buf = append(buf, opts.Backend...)
	buf = append(buf, ':')
	buf = append(buf, opts.Format...)
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, int64(opts.DPI), 10)
	buf = append(buf, ':')
	buf = append(buf, Hash([]byte(opts.Tool+"\x00"+dot))...)
	return string(buf)
}

// Hash returns the hex SHA-256 of data. FileCache uses it to shard keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
