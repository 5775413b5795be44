package domain

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Default ports used when an interface is given without one.
const (
	DefaultStoragePort = 7000
	DefaultThriftPort  = 9160
	DefaultBinaryPort  = 9042
	DefaultJMXPort     = 7199
)

// Endpoint is a host and port pair.
type Endpoint struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"gt=0,lt=65536"`
}

// String renders the endpoint as host:port.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndpoint parses "host[:port]", using defaultPort when the port is
// omitted.
func ParseEndpoint(s string, defaultPort int) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port component.
		if s == "" {
			return Endpoint{}, ErrInvalidArgument.WithDetails("empty interface")
		}
		return Endpoint{Host: s, Port: defaultPort}, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Endpoint{}, ErrInvalidArgument.WithDetailsf("invalid port in %q", s)
	}
	return Endpoint{Host: host, Port: port}, nil
}

// Interfaces groups the network endpoints a node listens on.
type Interfaces struct {
	Storage Endpoint  `yaml:"storage"`
	Thrift  Endpoint  `yaml:"thrift"`
	Binary  *Endpoint `yaml:"binary,omitempty"`
}

// Node is one cluster member.
//
// Liveness is not part of the record; it is always asked of the process
// controller.
type Node struct {
	Name            string     `yaml:"name" validate:"required,excludesall=/"`
	Interfaces      Interfaces `yaml:"interfaces"`
	JMXPort         int        `yaml:"jmx_port" validate:"gt=0,lt=65536"`
	RemoteDebugPort int        `yaml:"remote_debug_port" validate:"gte=0,lt=65536"`
	DataCenter      string     `yaml:"data_center,omitempty"`
	InitialToken    string     `yaml:"initial_token,omitempty" validate:"omitempty,numeric"`
	AutoBootstrap   bool       `yaml:"auto_bootstrap"`
	LogLevel        LogLevel   `yaml:"log_level,omitempty"`
}

// Address returns the storage (gossip) address of the node. It is the
// identity other nodes see in gossip and topology files.
func (n Node) Address() string {
	return n.Interfaces.Storage.Host
}

// AdminPorts returns the administrative ports in use by the node.
// A zero remote debug port means remote debugging is disabled.
func (n Node) AdminPorts() []int {
	ports := []int{n.JMXPort}
	if n.RemoteDebugPort > 0 {
		ports = append(ports, n.RemoteDebugPort)
	}
	return ports
}

var validate = validator.New()

// Validate checks the node record for structural errors.
func (n Node) Validate() error {
	if err := validate.Struct(n); err != nil {
		return ErrInvalidArgument.WithDetails(describeValidation(n.Name, err)).WithCause(err)
	}
	if n.Interfaces.Binary != nil && n.Interfaces.Binary.Host != n.Interfaces.Thrift.Host {
		return ErrInvalidArgument.WithDetailsf("node %s: binary address must match thrift address", n.Name)
	}
	return nil
}

// ValidateConfig checks the cluster-wide configuration.
func ValidateConfig(c ClusterConfig) error {
	if err := validate.Struct(c); err != nil {
		return ErrInvalidArgument.WithDetails(describeValidation(c.Name, err)).WithCause(err)
	}
	return nil
}

func describeValidation(name string, err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s: field %s failed %q", name, fe.Namespace(), fe.Tag())
	}
	return fmt.Sprintf("%s: %v", name, err)
}
