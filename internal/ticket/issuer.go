package ticket

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Issuer 簽發票券識別碼與掃描用 payload。
// payload 只攜帶不可變的 ticket id；狀態與出席資訊一律查庫，
// 因為 QR 產生一次、會被掃很多次。
type Issuer interface {
	// NewTicketID 產生全域唯一、抗碰撞的票券識別碼
	NewTicketID() (string, error)
	// QRPayload 由票券識別碼產生掃描 payload；
	// 失敗不可回滾觸發它的確認轉換，呼叫端記 warning 後續補發
	QRPayload(ticketID string) (string, error)
	// ResolveTicketID 從掃描 payload 還原票券識別碼；
	// 也接受裸的 ticket id，方便人工輸入
	ResolveTicketID(payload string) (string, error)
}

const payloadVersion = 1

type qrPayload struct {
	Version  int    `json:"v"`
	TicketID string `json:"t"`
}

type IssuerImpl struct{}

func NewIssuer() Issuer {
	return &IssuerImpl{}
}

func (i *IssuerImpl) NewTicketID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate ticket id: %w", err)
	}
	return "TKT-" + hex.EncodeToString(buf), nil
}

func (i *IssuerImpl) QRPayload(ticketID string) (string, error) {
	if ticketID == "" {
		return "", fmt.Errorf("empty ticket id")
	}
	raw, err := json.Marshal(qrPayload{Version: payloadVersion, TicketID: ticketID})
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

func (i *IssuerImpl) ResolveTicketID(payload string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		// 不是 base64 就當裸 ticket id
		return payload, nil
	}
	var p qrPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.TicketID == "" {
		return payload, nil
	}
	return p.TicketID, nil
}
