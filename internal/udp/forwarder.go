// Package udp streams UBX frames to a host:port destination, one frame per
// datagram. uCenter's "Network connection" source accepts exactly this.
package udp

import (
	"fmt"
	"net"
)

// udpConn is the slice of *net.UDPConn the forwarder needs; tests swap it.
type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

type resolveFunc func(network, address string) (*net.UDPAddr, error)
type dialFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

type Forwarder struct {
	dest string
	conn udpConn
}

func NewForwarder(dest string) (*Forwarder, error) {
	return newForwarder(dest, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	})
}

func newForwarder(dest string, resolve resolveFunc, dial dialFunc) (*Forwarder, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}

	return &Forwarder{
		dest: dest,
		conn: conn,
	}, nil
}

func (f *Forwarder) Dest() string { return f.dest }

func (f *Forwarder) Send(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	_, err := f.conn.Write(frame)
	return err
}

func (f *Forwarder) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
