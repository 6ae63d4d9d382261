package server

import (
	"fmt"
	"net"
	"strings"
)

// LocalIP returns the LAN address of this machine. No packet is sent:
// dialing UDP only selects the outbound interface.
func LocalIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address %v", conn.LocalAddr())
	}
	return addr.IP.String(), nil
}

// AccessURL is the address classmates on the same network can open.
func AccessURL(ip, listen string) string {
	port := "80"
	if i := strings.LastIndex(listen, ":"); i >= 0 && i < len(listen)-1 {
		port = listen[i+1:]
	}
	return fmt.Sprintf("http://%s:%s", ip, port)
}
