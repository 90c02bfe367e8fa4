package irc

import "regexp"

var (
	channelMessageRe = regexp.MustCompile(`^:(.*?)!(.*?)@(.*?) PRIVMSG #(.*?) :(.*)$`)
	keepAliveRe      = regexp.MustCompile(`^PING :(.*)$`)
)

// Decoded is the result of decoding one protocol line: a
// [ChannelMessage], a [KeepAlive] or a [Raw] line.
type Decoded interface {
	decoded()
}

// ChannelMessage is a PRIVMSG addressed to a channel.
type ChannelMessage struct {
	User    string // sender nickname
	Host    string
	Channel string // includes the leading '#'
	Message string
}

// KeepAlive is a server PING that must be answered with PONG.
type KeepAlive struct {
	Token string
}

// Raw is a line that matched no known shape.
type Raw struct {
	Line string
}

func (ChannelMessage) decoded() {}
func (KeepAlive) decoded()      {}
func (Raw) decoded()            {}

// Decode classifies line.  It never fails: anything unrecognised comes
// back as Raw.
func Decode(line string) Decoded {
	if m := channelMessageRe.FindStringSubmatch(line); m != nil {
		return ChannelMessage{
			User:    m[1],
			Host:    m[3],
			Channel: "#" + m[4],
			Message: m[5],
		}
	}
	if m := keepAliveRe.FindStringSubmatch(line); m != nil {
		return KeepAlive{Token: m[1]}
	}
	return Raw{Line: line}
}
