package constant

// Conversation id prefixes
const (
	DirectConversationPrefix = "dc_"
	GroupConversationPrefix  = "gc_"
)

// Group member role levels
const (
	RoleLevelMember = 0
	RoleLevelOwner  = 2
)

// Attachment limits
const (
	// MaxAttachmentSize caps message attachments (bytes)
	MaxAttachmentSize = 10 << 20
	// MaxPictureSize caps profile and group pictures (bytes)
	MaxPictureSize = 3 << 20
)

// AllowedAttachmentTypes is the attachment mime allow-list. Checked
// before any upstream call is made.
var AllowedAttachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
}

// AllowedPictureTypes is the picture mime allow-list (images only)
var AllowedPictureTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Redis key patterns (without prefix, use RedisKey*() to get full key)
const (
	redisKeySeqConversation = "seq:conv:%s" // seq:conv:{conversation_id}
	redisKeyOnline          = "online:%s"   // online:{user_id}
)

// redisKeyPrefix is the global prefix for all Redis keys
var redisKeyPrefix = "parley:"

// InitRedisKeyPrefix initializes the Redis key prefix from config
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// Redis key getters with prefix
func RedisKeySeqConversation() string { return redisKeyPrefix + redisKeySeqConversation }
func RedisKeyOnline() string          { return redisKeyPrefix + redisKeyOnline }
