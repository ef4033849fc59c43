package integration_testing

import (
	"sync"

	bolt "github.com/graphkit/bolt"
	"github.com/graphkit/bolt/errors"
	"github.com/graphkit/bolt/structures/graph"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bolt client", func() {
	var (
		conn bolt.Conn
		err  error
	)

	BeforeEach(func() {
		conn, err = bolt.NewDriver().Open(connStr)
		Expect(err).To(BeNil())
		Expect(conn).NotTo(BeNil())
	})

	AfterEach(func() {
		if conn != nil {
			conn.Reset()
			conn.Exec("MATCH (n:GraphkitIT) DETACH DELETE n", nil)
			conn.Close()
		}
	})

	Context("running statements", func() {
		It("returns records in the order the server sends them", func() {
			result, err := conn.Run("UNWIND range(1, {limit}) AS n RETURN n", map[string]interface{}{"limit": int64(5)})
			Expect(err).To(BeNil())

			Expect(result.Fields()).To(Equal([]string{"n"}))
			Expect(result.Records).To(HaveLen(5))
			for i, record := range result.Records {
				Expect(record[0]).To(Equal(int64(i + 1)))
			}
		})

		It("round trips values through parameters", func() {
			params := map[string]interface{}{
				"an_int":   int64(42),
				"a_float":  6.283185,
				"a_string": "values survive the wire",
				"a_bool":   true,
				"a_list":   []interface{}{int64(1), int64(2), int64(3)},
				"a_map":    map[string]interface{}{"nested": "value"},
			}
			result, err := conn.Run("RETURN {an_int}, {a_float}, {a_string}, {a_bool}, {a_list}, {a_map}", params)
			Expect(err).To(BeNil())
			Expect(result.Records).To(HaveLen(1))

			record := result.Records[0]
			Expect(record[0]).To(Equal(int64(42)))
			Expect(record[1]).To(Equal(6.283185))
			Expect(record[2]).To(Equal("values survive the wire"))
			Expect(record[3]).To(Equal(true))
			Expect(record[4]).To(Equal([]interface{}{int64(1), int64(2), int64(3)}))
			Expect(record[5]).To(Equal(map[string]interface{}{"nested": "value"}))
		})

		It("discards records on Exec and returns the summary", func() {
			summary, err := conn.Exec("CREATE (n:GraphkitIT {name: {name}})", map[string]interface{}{"name": "exec"})
			Expect(err).To(BeNil())
			Expect(summary).NotTo(BeNil())
		})
	})

	Context("graph values", func() {
		It("hydrates nodes", func() {
			_, err := conn.Exec("CREATE (n:GraphkitIT {name: 'node'})", nil)
			Expect(err).To(BeNil())

			result, err := conn.Run("MATCH (n:GraphkitIT {name: 'node'}) RETURN n", nil)
			Expect(err).To(BeNil())
			Expect(result.Records).To(HaveLen(1))

			node, ok := result.Records[0][0].(graph.Node)
			Expect(ok).To(BeTrue())
			Expect(node.Labels).To(ContainElement("GraphkitIT"))
			Expect(node.Properties["name"]).To(Equal("node"))
		})

		It("hydrates relationships", func() {
			_, err := conn.Exec("CREATE (:GraphkitIT {name: 'a'})-[:KNOWS {since: 2020}]->(:GraphkitIT {name: 'b'})", nil)
			Expect(err).To(BeNil())

			result, err := conn.Run("MATCH (:GraphkitIT {name: 'a'})-[r:KNOWS]->(:GraphkitIT {name: 'b'}) RETURN r", nil)
			Expect(err).To(BeNil())
			Expect(result.Records).To(HaveLen(1))

			rel, ok := result.Records[0][0].(graph.Relationship)
			Expect(ok).To(BeTrue())
			Expect(rel.Type).To(Equal("KNOWS"))
			Expect(rel.Properties["since"]).To(Equal(int64(2020)))
		})

		It("hydrates paths", func() {
			_, err := conn.Exec("CREATE (:GraphkitIT {name: 'start'})-[:KNOWS]->(:GraphkitIT {name: 'end'})", nil)
			Expect(err).To(BeNil())

			result, err := conn.Run("MATCH p = (:GraphkitIT {name: 'start'})-[:KNOWS]->(:GraphkitIT {name: 'end'}) RETURN p", nil)
			Expect(err).To(BeNil())
			Expect(result.Records).To(HaveLen(1))

			path, ok := result.Records[0][0].(graph.Path)
			Expect(ok).To(BeTrue())
			Expect(path.Nodes).To(HaveLen(2))
			Expect(path.Relationships).To(HaveLen(1))
		})
	})

	Context("failures", func() {
		It("surfaces server failures verbatim and recovers on acknowledgement", func() {
			_, err := conn.Run("THIS IS NOT CYPHER", nil)
			failure, ok := err.(*errors.ServerFailure)
			Expect(ok).To(BeTrue())
			Expect(failure.Code()).To(ContainSubstring("SyntaxError"))

			// The session refuses statements until acknowledged
			_, err = conn.Run("RETURN 1", nil)
			Expect(err).NotTo(BeNil())

			Expect(conn.AckFailure()).To(BeNil())

			result, err := conn.Run("RETURN 1", nil)
			Expect(err).To(BeNil())
			Expect(result.Records).To(HaveLen(1))
		})

		It("recovers with a reset", func() {
			_, err := conn.Run("THIS IS NOT CYPHER", nil)
			Expect(err).NotTo(BeNil())

			Expect(conn.Reset()).To(BeNil())

			result, err := conn.Run("RETURN 1", nil)
			Expect(err).To(BeNil())
			Expect(result.Records).To(HaveLen(1))
		})
	})

	Context("transactions", func() {
		It("commits", func() {
			tx, err := conn.Begin()
			Expect(err).To(BeNil())

			_, err = conn.Exec("CREATE (n:GraphkitIT {name: 'committed'})", nil)
			Expect(err).To(BeNil())
			Expect(tx.Commit()).To(BeNil())

			result, err := conn.Run("MATCH (n:GraphkitIT {name: 'committed'}) RETURN n", nil)
			Expect(err).To(BeNil())
			Expect(result.Records).To(HaveLen(1))
		})

		It("rolls back", func() {
			tx, err := conn.Begin()
			Expect(err).To(BeNil())

			_, err = conn.Exec("CREATE (n:GraphkitIT {name: 'discarded'})", nil)
			Expect(err).To(BeNil())
			Expect(tx.Rollback()).To(BeNil())

			result, err := conn.Run("MATCH (n:GraphkitIT {name: 'discarded'}) RETURN n", nil)
			Expect(err).To(BeNil())
			Expect(result.Records).To(BeEmpty())
		})
	})
})

var _ = Describe("Driver pool", func() {
	It("serves concurrent workers", func() {
		drivers, err := bolt.NewDriverPool(connStr, 4)
		Expect(err).To(BeNil())
		defer drivers.Close()

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer GinkgoRecover()

				conn, err := drivers.Get()
				Expect(err).To(BeNil())
				defer drivers.Release(conn)

				result, err := conn.Run("RETURN {i}", map[string]interface{}{"i": int64(i)})
				Expect(err).To(BeNil())
				Expect(result.Records).To(HaveLen(1))
				Expect(result.Records[0][0]).To(Equal(int64(i)))
			}(i)
		}
		wg.Wait()
	})
})
