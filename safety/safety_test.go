package safety

import (
	"strings"
	"testing"
)

func TestCheckCommandBlocksDangerous(t *testing.T) {
	c := NewChecker(nil)

	blocked := []string{
		"rm -rf / --no-preserve-root",
		"dd if=/dev/zero of=/dev/sda",
		"mkfs.ext4 /dev/sda1",
		"chmod -R 777 /",
	}
	for _, cmd := range blocked {
		ok, reason := c.CheckCommand(cmd)
		if ok {
			t.Errorf("CheckCommand(%q) allowed, want blocked", cmd)
		}
		if reason == "" {
			t.Errorf("CheckCommand(%q) gave no reason", cmd)
		}
	}
}

func TestCheckCommandSuspiciousPatterns(t *testing.T) {
	c := NewChecker(nil)

	for _, cmd := range []string{
		"sudo rm important.txt",
		"shutdown -h now",
		"reboot",
	} {
		if ok, _ := c.CheckCommand(cmd); ok {
			t.Errorf("CheckCommand(%q) allowed, want blocked", cmd)
		}
	}
}

func TestCheckCommandAllowsBenign(t *testing.T) {
	c := NewChecker(nil)

	for _, cmd := range []string{
		"ls -la /tmp",
		"git status",
		"df -h",
		"cat README.md",
	} {
		if ok, reason := c.CheckCommand(cmd); !ok {
			t.Errorf("CheckCommand(%q) blocked: %s", cmd, reason)
		}
	}
}

func TestCheckCommandExtraDangerous(t *testing.T) {
	c := NewChecker([]string{"drop database", "  ", ""})

	if ok, _ := c.CheckCommand("mysql -e 'DROP DATABASE prod'"); ok {
		t.Error("configured extra pattern not enforced")
	}
	if ok, _ := c.CheckCommand("ls"); !ok {
		t.Error("blank extra patterns must be ignored")
	}
}

func TestCheckFileOperation(t *testing.T) {
	c := NewChecker(nil)

	if ok, reason := c.CheckFileOperation("read", "/etc/shadow"); ok {
		t.Error("protected path allowed")
	} else if !strings.Contains(reason, "protected") {
		t.Errorf("reason = %q", reason)
	}

	if ok, _ := c.CheckFileOperation("read", "../../etc/hosts"); ok {
		t.Error("path traversal allowed")
	}
	if ok, _ := c.CheckFileOperation("delete", "/"); ok {
		t.Error("root deletion allowed")
	}
	if ok, reason := c.CheckFileOperation("write", "/tmp/notes.txt"); !ok {
		t.Errorf("benign write blocked: %s", reason)
	}
}

func TestRequiresConfirmation(t *testing.T) {
	c := NewChecker(nil)

	if !c.RequiresConfirmation("rm old-logs") {
		t.Error("rm should require confirmation")
	}
	if !c.RequiresConfirmation("Delete the temp folder") {
		t.Error("delete should require confirmation, case-insensitively")
	}
	if c.RequiresConfirmation("ls -la") {
		t.Error("ls should not require confirmation")
	}
}
