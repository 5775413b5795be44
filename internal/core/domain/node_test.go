package domain

import (
	"errors"
	"testing"
)

func validNode() Node {
	return Node{
		Name: "node1",
		Interfaces: Interfaces{
			Storage: Endpoint{Host: "127.0.0.1", Port: 7000},
			Thrift:  Endpoint{Host: "127.0.0.1", Port: 9160},
			Binary:  &Endpoint{Host: "127.0.0.1", Port: 9042},
		},
		JMXPort: 7100,
	}
}

func TestNode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Node)
		wantErr bool
	}{
		{"valid", func(n *Node) {}, false},
		{"valid without binary", func(n *Node) { n.Interfaces.Binary = nil }, false},
		{"valid with token", func(n *Node) { n.InitialToken = "-9223372036854775808" }, false},
		{"missing name", func(n *Node) { n.Name = "" }, true},
		{"slash in name", func(n *Node) { n.Name = "a/b" }, true},
		{"missing storage host", func(n *Node) { n.Interfaces.Storage.Host = "" }, true},
		{"bad thrift port", func(n *Node) { n.Interfaces.Thrift.Port = 70000 }, true},
		{"bad jmx port", func(n *Node) { n.JMXPort = 0 }, true},
		{"non numeric token", func(n *Node) { n.InitialToken = "abc" }, true},
		{"binary host mismatch", func(n *Node) { n.Interfaces.Binary = &Endpoint{Host: "127.0.0.2", Port: 9042} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNode()
			tt.mutate(&n)
			err := n.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Validate() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestNode_AddressAndPorts(t *testing.T) {
	n := validNode()
	if got := n.Address(); got != "127.0.0.1" {
		t.Errorf("Address() = %q", got)
	}
	if got := n.AdminPorts(); len(got) != 1 || got[0] != 7100 {
		t.Errorf("AdminPorts() = %v, want [7100]", got)
	}
	n.RemoteDebugPort = 2100
	if got := n.AdminPorts(); len(got) != 2 || got[1] != 2100 {
		t.Errorf("AdminPorts() = %v, want [7100 2100]", got)
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    Endpoint
		wantErr bool
	}{
		{"127.0.0.1", Endpoint{"127.0.0.1", 9160}, false},
		{"127.0.0.1:9161", Endpoint{"127.0.0.1", 9161}, false},
		{"localhost:0", Endpoint{}, true},
		{"localhost:x", Endpoint{}, true},
		{"", Endpoint{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEndpoint(tt.in, 9160)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEndpoint(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseEndpoint(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEndpoint_String(t *testing.T) {
	if got := (Endpoint{"127.0.0.1", 7000}).String(); got != "127.0.0.1:7000" {
		t.Errorf("String() = %q", got)
	}
}
