package email

import (
	"context"
	"testing"
)

func TestNoopSender_Records(t *testing.T) {
	s := NewNoopSender()
	res, err := s.SendBatch(context.Background(), []SendRequest{
		{To: []string{"asha@example.com"}, Subject: "We received your application"},
		{To: []string{"office@sunrise.example"}, Subject: "New admission application"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].MessageID == res[1].MessageID {
		t.Errorf("results = %+v", res)
	}
	sent := s.Sent()
	if len(sent) != 2 || sent[1].To[0] != "office@sunrise.example" {
		t.Errorf("sent = %+v", sent)
	}
}

var _ Sender = (*NoopSender)(nil)
var _ Sender = (*ResendSender)(nil)
