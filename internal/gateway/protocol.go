package gateway

import "encoding/json"

// Frame types for the WebSocket protocol.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// ProtocolVersion is the protocol version spoken by this server.
const ProtocolVersion = 1

// Frame is the envelope for every WebSocket message. Type selects which
// of the remaining fields are meaningful.
type Frame struct {
	Type string `json:"type"`

	// Request
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// Response
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrorShape     `json:"error,omitempty"`

	// Event
	Event string `json:"event,omitempty"`
	Seq   int64  `json:"seq,omitempty"`
}

// ErrorShape is the error body of a failed response.
type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error codes returned in ErrorShape.Code.
const (
	CodeProtocol       = "protocol_error"
	CodeUnauthorized   = "unauthorized"
	CodeMethodNotFound = "method_not_found"
	CodeInvalidParams  = "invalid_params"
	CodeNotFound       = "not_found"
	CodeCorrupt        = "corrupt_record"
	CodeStore          = "store_error"
	CodeCanceled       = "canceled"
)

// ConnectParams are sent by the client in the initial "connect" request.
type ConnectParams struct {
	MinProtocol int          `json:"minProtocol"`
	MaxProtocol int          `json:"maxProtocol"`
	Client      ClientInfo   `json:"client"`
	Auth        *ConnectAuth `json:"auth,omitempty"`
}

// ClientInfo identifies the connecting client, usually an editor instance.
type ClientInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version"`
	Platform    string `json:"platform,omitempty"`
}

// ConnectAuth carries credentials in the connect request.
type ConnectAuth struct {
	Token    string `json:"token,omitempty"`
	Password string `json:"password,omitempty"`
}

// HelloOK is the response payload to a successful connect.
type HelloOK struct {
	Protocol int          `json:"protocol"`
	Server   ServerInfo   `json:"server"`
	Features Features     `json:"features"`
	Policy   ServerPolicy `json:"policy"`
}

// ServerInfo identifies the server and the layout schema it stores.
type ServerInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Schema  int    `json:"schema"`
	ConnID  string `json:"connId"`
}

// Features advertises the RPC methods and events.
type Features struct {
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

// ServerPolicy communicates protocol limits to the client.
type ServerPolicy struct {
	MaxPayload int `json:"maxPayload"`
}

// LocationParams select a stored layout. ID takes precedence, then
// RemoteID, then Paths.
type LocationParams struct {
	ID       int64    `json:"id,omitempty"`
	RemoteID uint64   `json:"remoteId,omitempty"`
	Paths    []string `json:"paths,omitempty"`
}

// ListParams are the params of workspace.list.
type ListParams struct {
	Limit int `json:"limit,omitempty"`
}

// Summary is one entry of a workspace.list response.
type Summary struct {
	ID       int64    `json:"id"`
	Location string   `json:"location"`
	Paths    []string `json:"paths,omitempty"`
	RemoteID uint64   `json:"remoteId,omitempty"`
	SavedAt  string   `json:"savedAt"`
}

// DeleteParams are the params of workspace.delete.
type DeleteParams struct {
	ID int64 `json:"id"`
}

// DroppedItem describes an item that could not be restored.
type DroppedItem struct {
	Pane  int    `json:"pane"`
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Item  uint64 `json:"item"`
	Error string `json:"error"`
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameTypeRequest, ID: id, Method: method, Params: raw}, nil
}

// NewResponse creates a success response frame.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{Type: FrameTypeResponse, ID: id, OK: &ok, Payload: raw}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id string, errShape ErrorShape) Frame {
	ok := false
	return Frame{Type: FrameTypeResponse, ID: id, OK: &ok, Error: &errShape}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameTypeEvent, Event: event, Payload: raw, Seq: seq}, nil
}
