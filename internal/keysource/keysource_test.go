package keysource

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestExtractDeduplicatesInFirstSeenOrder(t *testing.T) {
	t.Parallel()

	text := "Chain f2b-sshd\n" +
		"1 REJECT all -- 10.0.0.5 ...\n" +
		"2 REJECT all -- 10.0.0.5 ...\n" +
		"3 REJECT all -- 8.8.8.8 ..."

	keys := Extract(text)

	want := []string{"10.0.0.5", "8.8.8.8"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("Extract() = %v, want %v", keys, want)
	}
}

func TestExtractEdgeCases(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty input", text: "", want: nil},
		{name: "no addresses", text: "Chain f2b-sshd (1 references)\ntarget prot opt source", want: nil},
		{name: "one key per line", text: "1 REJECT 1.2.3.4 5.6.7.8", want: []string{"1.2.3.4"}},
		{name: "windows line endings", text: "1 REJECT 1.2.3.4\r\n2 REJECT 5.6.7.8\r\n", want: []string{"1.2.3.4", "5.6.7.8"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := Extract(tc.text); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Extract() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIPTablesListerPassesChain(t *testing.T) {
	t.Parallel()

	var gotArgs []string
	lister := NewIPTablesLister("f2b-nginx")
	lister.runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name != "iptables" {
			t.Fatalf("command = %q, want iptables", name)
		}
		gotArgs = args
		return []byte("1 REJECT 1.2.3.4\n"), nil
	}

	out, err := lister.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if out != "1 REJECT 1.2.3.4\n" {
		t.Fatalf("List() = %q", out)
	}

	want := []string{"-L", "f2b-nginx", "-n", "--line-numbers"}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
}

func TestIPTablesListerDefaultsChain(t *testing.T) {
	t.Parallel()

	lister := NewIPTablesLister("   ")
	if lister.chain != defaultChain {
		t.Fatalf("chain = %q, want %q", lister.chain, defaultChain)
	}
}

func TestIPTablesListerCommandFailure(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("exit status 3")
	lister := NewIPTablesLister("f2b-sshd")
	lister.runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, wantErr
	}

	_, err := lister.List(context.Background())
	if err == nil {
		t.Fatal("expected error from failed command")
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want wrapped %v", err, wantErr)
	}
}

func TestExtractAfterFailedListingYieldsZeroKeys(t *testing.T) {
	t.Parallel()

	lister := NewIPTablesLister("f2b-sshd")
	lister.runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, fmt.Errorf("iptables not found")
	}

	listing, err := lister.List(context.Background())
	if err == nil {
		t.Fatal("expected listing error")
	}

	if keys := Extract(listing); len(keys) != 0 {
		t.Fatalf("keys = %v, want empty", keys)
	}
}
