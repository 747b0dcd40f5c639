package printer

// Kind identifies the variant carried by a Message.
type Kind int

const (
	// KindPrintable carries one matched line.
	KindPrintable Kind = iota
	// KindEndOfReading marks that a target will send no further lines.
	KindEndOfReading
	// KindDisplay carries free text to write as-is.
	KindDisplay
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindPrintable:
		return "printable"
	case KindEndOfReading:
		return "end-of-reading"
	case KindDisplay:
		return "display"
	default:
		return "unknown"
	}
}

// Message is one unit of work for the printer. Which fields are meaningful
// depends on Kind: Printable uses all of them, EndOfReading only Target and
// Display only Text.
type Message struct {
	Kind    Kind
	Target  string
	LineNum int
	Text    []byte
}

// Printable builds a message for a matched line. text must not be modified
// after the call; the printer may hold on to it.
func Printable(target string, lineNum int, text []byte) Message {
	return Message{Kind: KindPrintable, Target: target, LineNum: lineNum, Text: text}
}

// EndOfReading builds the end marker for target.
func EndOfReading(target string) Message {
	return Message{Kind: KindEndOfReading, Target: target}
}

// Display builds a message that is written verbatim.
func Display(text string) Message {
	return Message{Kind: KindDisplay, Text: []byte(text)}
}

// Sink accepts printer messages. Implementations must be safe to call from
// many goroutines.
type Sink interface {
	Send(msg Message)
}

// Null is a Sink that drops every message.
type Null struct{}

// Send discards msg.
func (Null) Send(Message) {}
