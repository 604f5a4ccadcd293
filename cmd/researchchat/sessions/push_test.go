package sessionscmder

import (
	"bytes"
	"context"
	"net"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/buildfastwithai/researchchat/pkg/llm"
	"github.com/buildfastwithai/researchchat/pkg/session"
	"github.com/buildfastwithai/researchchat/server"
)

var _ = Describe("Push Command", func() {
	var (
		ctx      context.Context
		localDir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		localDir = GinkgoT().TempDir()
	})

	seedLocal := func(contents ...string) {
		local, err := session.NewFileStore(localDir)
		Expect(err).NotTo(HaveOccurred())
		for _, content := range contents {
			s := session.New(session.DefaultSystemPrompt)
			s.Append(session.Turn{Role: session.RoleUser, Content: content})
			Expect(local.Save(ctx, s)).To(Succeed())
		}
	}

	startServer := func() (string, session.Store, func()) {
		serverStore, err := session.NewFileStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		srv := server.New(server.Config{}, serverStore, llm.NewClient("", "unused"), zap.NewNop())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			_ = srv.RunWithListener(listener)
		}()

		addr := "http://" + listener.Addr().String()
		cleanup := func() {
			srv.Shutdown()
		}
		return addr, serverStore, cleanup
	}

	runPush := func(addr string, extra ...string) error {
		cmd := NewSessionsCmd()
		args := append([]string{"push", "--store-dir", localDir}, extra...)
		cmd.SetArgs(append(args, addr))
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		return cmd.ExecuteContext(ctx)
	}

	It("pushes local sessions to a remote server", func() {
		seedLocal("hello from push test", "second conversation")

		addr, serverStore, cleanup := startServer()
		defer cleanup()

		Expect(runPush(addr)).To(Succeed())

		summaries, err := serverStore.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(2))
	})

	It("deduplicates on double push", func() {
		seedLocal("dedup push test")

		addr, serverStore, cleanup := startServer()
		defer cleanup()

		Expect(runPush(addr)).To(Succeed())
		Expect(runPush(addr)).To(Succeed())

		summaries, err := serverStore.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(1))
	})

	It("pushes in batches", func() {
		seedLocal("one", "two", "three")

		addr, serverStore, cleanup := startServer()
		defer cleanup()

		Expect(runPush(addr, "--batch-size", "2")).To(Succeed())

		summaries, err := serverStore.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(3))
	})

	It("succeeds with nothing to push", func() {
		addr, _, cleanup := startServer()
		defer cleanup()

		Expect(runPush(addr)).To(Succeed())
	})
})
